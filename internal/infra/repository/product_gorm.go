package repository

import (
	"context"
	"fmt"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

// Postgresのproductsテーブルをカタログとして読むリポジトリ。
type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 全商品をID順で返す。
func (r *ProductGormRepository) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product

	if err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Order("id asc").
		Find(&products).Error; err != nil {
		return []model.Product{}, fmt.Errorf("list products: %w", err)
	}

	return products, nil
}

// 重複なしのカテゴリを名前順で返す。
func (r *ProductGormRepository) GetCategories(ctx context.Context) ([]string, error) {
	var cats []string

	if err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Distinct("category").
		Order("category asc").
		Pluck("category", &cats).Error; err != nil {
		return []string{}, fmt.Errorf("list categories: %w", err)
	}

	return cats, nil
}

// Seed は商品を投入する（開発用）。IDが既にあれば上書き。
func (r *ProductGormRepository) Seed(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range products {
			if err := tx.Save(&products[i]).Error; err != nil {
				return fmt.Errorf("seed product %d: %w", products[i].ID, err)
			}
		}
		return nil
	})
}
