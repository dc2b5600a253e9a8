package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cart と /header のHTTP
type CartHandler struct {
	cart *usecase.CartStore
	page *usecase.PageUsecase
}

// DI
func NewCartHandler(cart *usecase.CartStore, page *usecase.PageUsecase) *CartHandler {
	return &CartHandler{cart: cart, page: page}
}

type AddCartRequest struct {
	ProductID int64 `json:"product_id"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

type HeaderResponse struct {
	ItemCount int  `json:"item_count"`
	IsOpen    bool `json:"is_open"`
}

// /cart, /cart/items/{id}, /header を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/header", h.header)

	g := e.Group("/cart")
	g.GET("", h.getCart)
	g.DELETE("", h.clear)
	g.POST("/items", h.addItem)
	g.PATCH("/items/:id", h.patchItem)
	g.DELETE("/items/:id", h.deleteItem)
	g.POST("/items/:id/increment", h.incrementItem)
	g.POST("/items/:id/decrement", h.decrementItem)
	g.POST("/toggle", h.toggle)
	g.POST("/open", h.open)
	g.POST("/close", h.close)
}

func (h *CartHandler) getCart(c echo.Context) error {
	return h.writeCart(c)
}

func (h *CartHandler) header(c echo.Context) error {
	st := h.cart.Snapshot()
	return c.JSON(http.StatusOK, HeaderResponse{ItemCount: st.ItemCount(), IsOpen: st.IsOpen})
}

// 商品カードの「カートに追加」
func (h *CartHandler) addItem(c echo.Context) error {
	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if _, err := h.page.AddToCart(req.ProductID); err != nil {
		return writeError(c, err)
	}
	return h.writeCart(c)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Quantity == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "quantity required"})
	}

	// 0以下は削除、無いIDは何もしない
	h.cart.UpdateQuantity(id, *req.Quantity)
	return h.writeCart(c)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	h.cart.RemoveItem(id)
	return h.writeCart(c)
}

func (h *CartHandler) incrementItem(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	h.cart.IncrementItem(id)
	return h.writeCart(c)
}

func (h *CartHandler) decrementItem(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	h.cart.DecrementItem(id)
	return h.writeCart(c)
}

func (h *CartHandler) clear(c echo.Context) error {
	h.cart.ClearCart()
	return h.writeCart(c)
}

func (h *CartHandler) toggle(c echo.Context) error {
	h.cart.ToggleCart()
	return h.writeCart(c)
}

func (h *CartHandler) open(c echo.Context) error {
	h.cart.OpenCart()
	return h.writeCart(c)
}

func (h *CartHandler) close(c echo.Context) error {
	h.cart.CloseCart()
	return h.writeCart(c)
}

func (h *CartHandler) writeCart(c echo.Context) error {
	return c.JSON(http.StatusOK, toCartResponse(h.cart.Snapshot()))
}
