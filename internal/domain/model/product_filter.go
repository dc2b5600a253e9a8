package model

import "strings"

// 一覧の絞り込み条件。空文字は「条件なし」。
type ProductFilter struct {
	Search   string
	Category string
}

// Matches は検索語（タイトル/説明の部分一致、大文字小文字無視）とカテゴリ（完全一致）の両方を満たすか。
func (f ProductFilter) Matches(p Product) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	return true
}

// FilterProducts は条件に合う商品を新しいスライスで返す（元のスライスは変更しない）。
func FilterProducts(products []Product, f ProductFilter) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}
