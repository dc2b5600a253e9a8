package model

import "github.com/shopspring/decimal"

// カートの明細
// IDは商品IDと同じ。表示用の項目は追加時点の値をコピーして持つ。
type CartLineItem struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

// Subtotal は単価×数量。
func (it CartLineItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// NewCartLineItem は商品から数量1の明細を作る。
func NewCartLineItem(p Product) CartLineItem {
	return CartLineItem{
		ID:       p.ID,
		Title:    p.Title,
		Price:    p.Price,
		Image:    p.Image,
		Quantity: 1,
	}
}
