package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// カタログ（商品とカテゴリ）の読み取りだけを約束。
// 実装はHTTP（外部API）とPostgres（GORM）の2つ。
type CatalogRepository interface {
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	// 重複なしのカテゴリ一覧
	GetCategories(ctx context.Context) ([]string, error)
}
