package handler

import (
	"context"
	"net/http"
	"strconv"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// トップページ（一覧・検索・詳細）のHTTP
type PageHandler struct {
	uc *usecase.PageUsecase
}

// DI
func NewPageHandler(uc *usecase.PageUsecase) *PageHandler {
	return &PageHandler{uc: uc}
}

type FilterRequest struct {
	Search   string `json:"search"`
	Category string `json:"category"`
}

type SearchRequest struct {
	Search string `json:"search"`
}

type CategoryRequest struct {
	Category string `json:"category"`
}

const maxSearchLen = 100

type PageResponse struct {
	Status            string            `json:"status"`
	Error             string            `json:"error,omitempty"`
	Heading           string            `json:"heading"`
	Search            string            `json:"search"`
	Category          string            `json:"category"`
	Categories        []string          `json:"categories"`
	CategoriesLoading bool              `json:"categories_loading"`
	Products          []ProductResponse `json:"products"`
	Found             int               `json:"found"`
	Selected          *ProductResponse  `json:"selected"`
}

type CategoriesResponse struct {
	Items   []string `json:"items"`
	Loading bool     `json:"loading"`
}

func (h *PageHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/categories", h.categories)

	g := e.Group("/page")
	g.GET("", h.view)
	g.POST("/mount", h.mount)
	g.PUT("/filter", h.setFilter)
	g.PUT("/search", h.setSearch)
	g.PUT("/category", h.setCategory)
	g.POST("/detail/:id", h.openDetail)
	g.DELETE("/detail", h.closeDetail)
	g.POST("/detail/cart", h.addSelectedToCart)
}

func (h *PageHandler) view(c echo.Context) error {
	return c.JSON(http.StatusOK, toPageResponse(h.uc.View()))
}

// 再読み込み。取得はリクエストの終了とは切り離して続ける
// ?refresh=true ならキャッシュも捨てて取り直す
func (h *PageHandler) mount(c echo.Context) error {
	ctx := context.WithoutCancel(c.Request().Context())
	refresh, err := strconv.ParseBool(c.QueryParam("refresh"))
	if c.QueryParam("refresh") != "" && err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid refresh"})
	}

	if refresh {
		h.uc.Reload(ctx)
	} else {
		h.uc.Mount(ctx)
	}
	return c.JSON(http.StatusAccepted, toPageResponse(h.uc.View()))
}

func (h *PageHandler) categories(c echo.Context) error {
	v := h.uc.View()
	items := v.Categories
	if items == nil {
		items = []string{}
	}
	return c.JSON(http.StatusOK, CategoriesResponse{Items: items, Loading: v.CategoriesLoading})
}

func (h *PageHandler) setFilter(c echo.Context) error {
	var req FilterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if len(req.Search) > maxSearchLen {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "search too long"})
	}

	h.uc.SetFilter(model.ProductFilter{Search: req.Search, Category: req.Category})
	return c.JSON(http.StatusOK, toPageResponse(h.uc.View()))
}

// 検索欄だけ変える（カテゴリはそのまま）
func (h *PageHandler) setSearch(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if len(req.Search) > maxSearchLen {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "search too long"})
	}

	h.uc.SetSearch(req.Search)
	return c.JSON(http.StatusOK, toPageResponse(h.uc.View()))
}

// カテゴリボタン。空文字で「すべて」
func (h *PageHandler) setCategory(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	h.uc.SetCategory(req.Category)
	return c.JSON(http.StatusOK, toPageResponse(h.uc.View()))
}

func (h *PageHandler) openDetail(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	p, err := h.uc.ViewDetails(id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toProductResponse(p))
}

func (h *PageHandler) closeDetail(c echo.Context) error {
	h.uc.CloseDetails()
	return c.NoContent(http.StatusNoContent)
}

// 詳細の「カートに追加」（追加してから閉じる）
func (h *PageHandler) addSelectedToCart(c echo.Context) error {
	p, err := h.uc.AddSelectedToCart()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toProductResponse(p))
}

func toPageResponse(v usecase.PageView) PageResponse {
	res := PageResponse{
		Status:            string(v.Status),
		Heading:           v.Heading,
		Search:            v.Search,
		Category:          v.Category,
		Categories:        v.Categories,
		CategoriesLoading: v.CategoriesLoading,
		Products:          make([]ProductResponse, 0, len(v.Products)),
	}
	if res.Categories == nil {
		res.Categories = []string{}
	}
	if v.Status == usecase.LoadStatusError {
		res.Error = "failed to load products"
	}
	for _, p := range v.Products {
		res.Products = append(res.Products, toProductResponse(p))
	}
	res.Found = len(res.Products)
	if v.Selected != nil {
		sel := toProductResponse(*v.Selected)
		res.Selected = &sel
	}
	return res
}
