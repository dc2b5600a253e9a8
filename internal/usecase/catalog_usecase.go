package usecase

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	queryKeyProducts   = "products"
	queryKeyCategories = "categories"

	// 共有の取得はどの呼び出し元にもキャンセルされないので、上限だけ決めておく
	sharedFetchTimeout = 30 * time.Second
)

// CatalogUsecase はカタログ取得のキャッシュ。
// 成功した結果はキーごとに保持し、同時に来た取得は1回にまとめる。
// 失敗はキャッシュしない（次のMountでもう一度取りに行く）。
// 取得自体は呼び出し元のctxから切り離して走らせ、各呼び出し元は自分のctxで待つのをやめる。
type CatalogUsecase struct {
	catalogRepo repo.CatalogRepository
	group       singleflight.Group

	mu         sync.RWMutex
	products   []model.Product
	categories []string
	hasProd    bool
	hasCat     bool

	log *zap.Logger
}

// DI
func NewCatalogUsecase(catalogRepo repo.CatalogRepository, log *zap.Logger) *CatalogUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogUsecase{
		catalogRepo: catalogRepo,
		log:         log.Named("catalog"),
	}
}

// Products は商品一覧（キャッシュ優先）。戻り値はコピー。
func (u *CatalogUsecase) Products(ctx context.Context) ([]model.Product, error) {
	u.mu.RLock()
	if u.hasProd {
		out := slices.Clone(u.products)
		u.mu.RUnlock()
		return out, nil
	}
	u.mu.RUnlock()

	v, shared, err := u.shared(ctx, queryKeyProducts, func(ctx context.Context) (any, error) {
		items, err := u.catalogRepo.GetAllProducts(ctx)
		if err != nil {
			return nil, err
		}
		u.mu.Lock()
		u.products = items
		u.hasProd = true
		u.mu.Unlock()
		return items, nil
	})
	if err != nil {
		u.log.Warn("fetch products failed", zap.Error(err))
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	items := v.([]model.Product)
	u.log.Debug("products fetched", zap.Int("count", len(items)), zap.Bool("shared", shared))
	return slices.Clone(items), nil
}

// Categories はカテゴリ一覧（キャッシュ優先）。
func (u *CatalogUsecase) Categories(ctx context.Context) ([]string, error) {
	u.mu.RLock()
	if u.hasCat {
		out := slices.Clone(u.categories)
		u.mu.RUnlock()
		return out, nil
	}
	u.mu.RUnlock()

	v, _, err := u.shared(ctx, queryKeyCategories, func(ctx context.Context) (any, error) {
		cats, err := u.catalogRepo.GetCategories(ctx)
		if err != nil {
			return nil, err
		}
		cats = dedupe(cats)
		u.mu.Lock()
		u.categories = cats
		u.hasCat = true
		u.mu.Unlock()
		return cats, nil
	})
	if err != nil {
		u.log.Warn("fetch categories failed", zap.Error(err))
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	return slices.Clone(v.([]string)), nil
}

// shared はキーごとに1つの取得を走らせ、呼び出し元はctxが終わるまで結果を待つ。
func (u *CatalogUsecase) shared(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, bool, error) {
	ch := u.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return fn(fetchCtx)
	})

	select {
	case r := <-ch:
		return r.Val, r.Shared, r.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Invalidate はキャッシュを捨てる。
func (u *CatalogUsecase) Invalidate() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.products, u.categories = nil, nil
	u.hasProd, u.hasCat = false, false
}

// 順序を保ったまま重複を除く
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
