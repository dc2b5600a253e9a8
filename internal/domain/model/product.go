package model

import "github.com/shopspring/decimal"

// 商品の評価（平均 0〜5 とレビュー件数）
type Rating struct {
	Rate  float64 `gorm:"column:rate;not null;default:0" json:"rate"`
	Count int64   `gorm:"column:count;not null;default:0" json:"count"`
}

// カタログの商品。外部のカタログサービスから取得し、アプリ側では変更しない。
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Category    string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Image       string          `gorm:"type:text" json:"image"`
	Rating      Rating          `gorm:"embedded;embeddedPrefix:rating_" json:"rating"`
}
