package usecase

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// 商品一覧の読み込み状態。3つのうち必ずどれか1つ。
type LoadStatus string

const (
	LoadStatusLoading LoadStatus = "loading"
	LoadStatusError   LoadStatus = "error"
	LoadStatusReady   LoadStatus = "ready"
)

// PageView はトップページの表示内容。
// Productsは絞り込み済み。Ready以外ではnil。
type PageView struct {
	Status            LoadStatus
	Err               error
	Products          []model.Product
	Categories        []string
	CategoriesLoading bool
	Search            string
	Category          string
	Heading           string
	Selected          *model.Product
}

// PageUsecase はトップページの状態（カタログ取得、検索・カテゴリ、詳細表示）をまとめる。
// カートはCartStoreを共有するだけで、ここでは持たない。
type PageUsecase struct {
	catalog *CatalogUsecase
	cart    *CartStore

	// 詳細からの追加を1つずつ通す（muより先に取る）
	addMu sync.Mutex

	mu                sync.Mutex
	gen               uint64
	cancel            context.CancelFunc
	status            LoadStatus
	loadErr           error
	products          []model.Product
	categories        []string
	categoriesLoading bool
	filter            model.ProductFilter
	selected          *model.Product

	log *zap.Logger
}

// DI
func NewPageUsecase(catalog *CatalogUsecase, cart *CartStore, log *zap.Logger) *PageUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &PageUsecase{
		catalog: catalog,
		cart:    cart,
		status:  LoadStatusLoading,
		log:     log.Named("page"),
	}
}

// Mount はページを初期状態に戻してカタログ取得を始める。
// 返すチャネルは商品とカテゴリの取得が両方終わる（または破棄される）と閉じる。
// 前回のMountの取得がまだ終わっていなければ、その結果は捨てる。
func (p *PageUsecase) Mount(ctx context.Context) <-chan struct{} {
	ctx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	p.cancel = cancel
	p.status = LoadStatusLoading
	p.loadErr = nil
	p.products = nil
	p.categories = nil
	p.categoriesLoading = true
	p.filter = model.ProductFilter{}
	p.selected = nil
	p.mu.Unlock()

	p.log.Info("page mounted", zap.Uint64("generation", gen))

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()

		var g errgroup.Group
		g.Go(func() error {
			items, err := p.catalog.Products(ctx)
			p.applyProducts(gen, items, err)
			return err
		})
		g.Go(func() error {
			cats, err := p.catalog.Categories(ctx)
			// カテゴリ取得の失敗は画面全体のエラーにしない
			p.applyCategories(gen, cats, err)
			return nil
		})
		if err := g.Wait(); err != nil {
			p.log.Error("catalog load failed", zap.Uint64("generation", gen), zap.Error(err))
		}
	}()
	return done
}

// Reload はカタログのキャッシュを捨ててからMountする（「もう一度読み込む」）。
func (p *PageUsecase) Reload(ctx context.Context) <-chan struct{} {
	p.catalog.Invalidate()
	return p.Mount(ctx)
}

// Unmount は取得中のカタログを破棄する。
func (p *PageUsecase) Unmount() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	// 世代を進めて、取得中の結果を反映させない
	p.gen++
	p.log.Info("page unmounted")
}

func (p *PageUsecase) applyProducts(gen uint64, items []model.Product, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		p.log.Debug("stale products discarded", zap.Uint64("generation", gen))
		return
	}
	if err != nil {
		p.status = LoadStatusError
		p.loadErr = err
		p.products = nil
		return
	}
	p.status = LoadStatusReady
	p.products = items
}

func (p *PageUsecase) applyCategories(gen uint64, cats []string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return
	}
	p.categoriesLoading = false
	if err != nil {
		p.categories = nil
		return
	}
	p.categories = cats
}

// View は現在の状態から表示内容を作る。絞り込みは毎回ここで計算する。
func (p *PageUsecase) View() PageView {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := PageView{
		Status:            p.status,
		Err:               p.loadErr,
		Categories:        slices.Clone(p.categories),
		CategoriesLoading: p.categoriesLoading,
		Search:            p.filter.Search,
		Category:          p.filter.Category,
		Heading:           heading(p.filter.Category),
	}
	if p.status == LoadStatusReady {
		v.Products = model.FilterProducts(p.products, p.filter)
	}
	if p.selected != nil {
		sel := *p.selected
		v.Selected = &sel
	}
	return v
}

// SetFilter は検索語とカテゴリを同時に設定する。
func (p *PageUsecase) SetFilter(f model.ProductFilter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter = f
}

func (p *PageUsecase) SetSearch(q string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter.Search = q
}

// SetCategory は空文字で「すべて」。
func (p *PageUsecase) SetCategory(category string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter.Category = category
}

// ViewDetails は読み込み済みの商品を詳細表示にする（同時に1つだけ）。
func (p *PageUsecase) ViewDetails(productID int64) (model.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prod, err := p.findLocked(productID)
	if err != nil {
		return model.Product{}, err
	}
	p.selected = &prod
	return prod, nil
}

// CloseDetails は詳細表示を閉じる。
func (p *PageUsecase) CloseDetails() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = nil
}

// AddToCart は商品カードの「カートに追加」。詳細表示はそのまま。
// カートのリスナーがページを読めるように、AddItemはページのロックを外してから呼ぶ。
func (p *PageUsecase) AddToCart(productID int64) (model.Product, error) {
	p.mu.Lock()
	prod, err := p.findLocked(productID)
	p.mu.Unlock()
	if err != nil {
		return model.Product{}, err
	}

	p.cart.AddItem(prod)
	return prod, nil
}

// AddSelectedToCart は詳細表示の「カートに追加」。カートへ追加してから詳細を閉じる。
// 追加の間に別の商品が選ばれていたら、そちらは閉じない。
func (p *PageUsecase) AddSelectedToCart() (model.Product, error) {
	p.addMu.Lock()
	defer p.addMu.Unlock()

	p.mu.Lock()
	sel := p.selected
	p.mu.Unlock()
	if sel == nil {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "no product selected")
	}
	prod := *sel

	p.cart.AddItem(prod)

	p.mu.Lock()
	if p.selected == sel {
		p.selected = nil
	}
	p.mu.Unlock()
	return prod, nil
}

func (p *PageUsecase) findLocked(productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	// 読み込み前は、どの商品もまだ見えていない
	if p.status != LoadStatusReady {
		return model.Product{}, fmt.Errorf("product %d: %w", productID, repo.ErrNotFound)
	}
	i := slices.IndexFunc(p.products, func(x model.Product) bool { return x.ID == productID })
	if i < 0 {
		return model.Product{}, fmt.Errorf("product %d: %w", productID, repo.ErrNotFound)
	}
	return p.products[i], nil
}

func heading(category string) string {
	if category == "" {
		return "All Products"
	}
	return category + " Products"
}
