package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/catalog"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.GoEnv == config.EnvProd {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// カタログの取得元を設定で切り替える
func newCatalogRepository(ctx context.Context, cfg config.Config, log *zap.Logger) (repo.CatalogRepository, error) {
	httpRepo := catalog.NewHTTPCatalogRepository(cfg.CatalogBaseURL, cfg.CatalogTimeout)
	if cfg.CatalogSource == config.CatalogSourceHTTP {
		return httpRepo, nil
	}

	gormDB, err := db.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := gormDB.AutoMigrate(&model.Product{}); err != nil {
		return nil, err
	}

	productRepo := infraRepo.NewProductGormRepository(gormDB)

	//外部APIの商品をDBへ投入（開発用）
	if cfg.CatalogSeed {
		products, err := httpRepo.GetAllProducts(ctx)
		if err != nil {
			return nil, err
		}
		if err := productRepo.Seed(ctx, products); err != nil {
			return nil, err
		}
		log.Info("catalog seeded", zap.Int("count", len(products)))
	}
	return productRepo, nil
}

func main() {
	// .env は無くてもよい
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalogRepo, err := newCatalogRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal("catalog setup failed", zap.Error(err))
	}

	//Usecase生成（カートはこのプロセスで1つ）
	cart := usecase.NewCartStore(log)
	catalogUC := usecase.NewCatalogUsecase(catalogRepo, log)
	page := usecase.NewPageUsecase(catalogUC, cart, log)
	page.Mount(ctx)
	defer page.Unmount()

	//Handler生成
	pageH := handler.NewPageHandler(page)
	cartH := handler.NewCartHandler(cart, page)
	eventsH := handler.NewEventsHandler(cart, log)

	//Server起動
	e := server.New(cfg, log)
	server.RegisterRoutes(e, pageH, cartH, eventsH)

	if err := server.Start(ctx, e, cfg.Addr(), log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
