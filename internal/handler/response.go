package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// パスの :id を正の整数として読む
func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// 金額は小数2桁の文字列で返す（"29.90"）
type ProductResponse struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Price       string       `json:"price"`
	Category    string       `json:"category"`
	Image       string       `json:"image"`
	Rating      model.Rating `json:"rating"`
}

func toProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Category:    p.Category,
		Image:       p.Image,
		Rating:      p.Rating,
	}
}

type CartItemResponse struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

// 合計と件数はここで計算せず、CartStateの値をそのまま出す。
type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Total     string             `json:"total"`
	IsOpen    bool               `json:"is_open"`
	Version   uint64             `json:"version"`
}

func toCartResponse(st model.CartState) CartResponse {
	items := make([]CartItemResponse, 0, len(st.Items))
	for _, it := range st.Items {
		items = append(items, CartItemResponse{
			ID:       it.ID,
			Title:    it.Title,
			Price:    it.Price.StringFixed(2),
			Image:    it.Image,
			Quantity: it.Quantity,
			Subtotal: it.Subtotal().StringFixed(2),
		})
	}
	return CartResponse{
		Items:     items,
		ItemCount: st.ItemCount(),
		Total:     st.Total().StringFixed(2),
		IsOpen:    st.IsOpen,
		Version:   st.Version,
	}
}
