package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-facility-reservation/internal/api"
	"github.com/sanosuguru/go-facility-reservation/internal/api/handler"
	"github.com/sanosuguru/go-facility-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-facility-reservation/internal/application"
	"github.com/sanosuguru/go-facility-reservation/internal/config"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/notification"
	"github.com/sanosuguru/go-facility-reservation/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-facility-reservation/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-facility-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-facility-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-facility-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/go-facility-reservation/internal/worker"
)

func main() {
	// .env は任意
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(cfg.App.Env, "facility-reservation")
	defer logger.Sync()

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET が設定されていません")
	}
	loc, err := cfg.App.Location()
	if err != nil {
		log.Fatal("タイムゾーンエラー", zap.Error(err))
	}

	// PostgreSQL
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatal("DB接続エラー", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
		log.Fatal("マイグレーションエラー", zap.Error(err))
	}

	m := metrics.New()
	reservationRepo := postgres.NewReservationRepository(db, loc)
	spaceRepo := postgres.NewSpaceRepository(db)
	resourceRepo := postgres.NewResourceRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)
	txManager := postgres.NewTxManager(db)

	opts := []application.Option{
		application.WithMetrics(m),
		application.WithLocation(loc),
	}
	checks := []handler.Check{{Name: "postgres", Ping: func(ctx context.Context) error { return postgres.Ping(ctx, db) }}}

	// Redis（任意）。使えない場合は DB の行ロックだけで直列化する
	var spaceCache application.SpaceCache
	if cfg.Redis.Enabled {
		client, err := redisinfra.NewClient(&redisinfra.Config{
			Host: cfg.Redis.Host, Port: cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB,
		})
		if err != nil {
			log.Warn("Redis に接続できないため分散ロックとキャッシュを無効にします", zap.Error(err))
		} else {
			defer client.Close()
			opts = append(opts, application.WithLockManager(redisinfra.NewLockManager(client), cfg.Redis.LockTTL))
			spaceCache = redisinfra.NewSpaceCache(client)
			checks = append(checks, handler.Check{Name: "redis", Ping: func(ctx context.Context) error { return redisinfra.Ping(ctx, client) }})
		}
	}

	// RabbitMQ（任意）。未設定なら通知依頼は発行しない
	var publisher *rabbitmq.Publisher
	if cfg.RabbitMQ.URL != "" {
		publisher, err = rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			log.Warn("RabbitMQ に接続できないため通知依頼を発行しません", zap.Error(err))
		} else {
			defer publisher.Close()
			opts = append(opts, application.WithPublisher(publisher, notification.Policy{
				Recipients:          cfg.Notification.Recipients,
				IncludeRequester:    cfg.Notification.IncludeRequester,
				IncludeParticipants: cfg.Notification.IncludeParticipants,
			}, cfg.RabbitMQ.Timeout))
		}
	}

	reservationService := application.NewReservationService(txManager, reservationRepo, spaceRepo, resourceRepo, historyRepo, opts...)
	resourceService := application.NewResourceService(txManager, reservationRepo, spaceRepo, resourceRepo, application.SystemClock)
	spaceService := application.NewSpaceService(spaceRepo, reservationRepo, spaceCache, application.SystemClock, loc)

	// Echo
	e := api.NewEcho()
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	middleware.SetupMiddleware(e, cfg.Server)
	e.Use(middleware.PrometheusMiddleware(m))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(cfg.Metrics))
	handler.RegisterRoutes(e, handler.Handlers{
		Health:       handler.NewHealthHandler(checks...),
		Reservations: handler.NewReservationHandler(reservationService),
		Resources:    handler.NewResourceHandler(resourceService),
		Spaces:       handler.NewSpaceHandler(spaceService),
	}, middleware.Identity(cfg.Auth.JWTSecret))

	// バックグラウンドワーカー
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stats := worker.NewReservationStatsCollector(reservationRepo, m.ActiveReservations, cfg.Worker.StatsInterval)
	go stats.Start(ctx)

	go func() {
		log.Info("サーバー起動", zap.String("port", cfg.Server.Port), zap.String("timezone", loc.String()))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("サーバーをシャットダウンしています...")
	stats.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("サーバーシャットダウンエラー", zap.Error(err))
	}

	// 発行中の通知依頼を待つ
	reservationService.Wait()

	log.Info("サーバーが正常にシャットダウンしました")
}
