package main

import (
	"context"
	"fmt"
	"time"

	"Aidmap-App/internal/auth"
	"Aidmap-App/internal/config"
	"Aidmap-App/internal/domain/repository"
	"Aidmap-App/internal/domain/service"
	"Aidmap-App/internal/handler"
	"Aidmap-App/internal/infrastructure/cache"
	"Aidmap-App/internal/infrastructure/database"
	"Aidmap-App/internal/infrastructure/geocoding"
	"Aidmap-App/internal/infrastructure/notify"
	repo "Aidmap-App/internal/repository"
	"Aidmap-App/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// app 依存関係を組み立てたアプリケーション
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.PostgreSQLClient
	redis  *redis.Client

	oauth    usecase.OauthUseCase
	seed     usecase.SeedUseCase
	bulk     usecase.BulkImportUseCase
	handlers handler.Handlers
}

// connectDB 設定からPostgreSQLへ接続する
func connectDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.PostgreSQLClient, error) {
	dsn, err := cfg.Database.DSN()
	if err != nil {
		return nil, err
	}
	db, err := database.NewPostgreSQLClientWithRetry(ctx, dsn, cfg.Database.ConnectRetries, 2*time.Second, logger)
	if err != nil {
		return nil, err
	}
	db.SetPoolLimits(cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	return db, nil
}

// newApp リポジトリ・ユースケース・ハンドラーを組み立てる
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	db, err := connectDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	rdb := cache.NewRedisClient(cfg.Redis)

	// リポジトリ
	locations := repo.NewPostgresLocationRepository(db)
	geoIndex := repo.NewPostgresGeoIndexRepository(db)
	changelogs := repo.NewPostgresChangeLogRepository(db)
	users := repo.NewPostgresUserRepository(db)
	orgs := repo.NewPostgresOrganizationRepository(db)
	zones := repo.NewPostgresZoneRepository(db)
	oauthRepo := repo.NewPostgresOauthRepository(db)
	sessions := repo.NewPostgresSessionRepository(db)
	guests := repo.NewPostgresGuestRepository(db)
	activity := repo.NewPostgresActivityLogRepository(db)
	phoneCodes := repo.NewPostgresPhoneCodeRepository(db)

	// 外部サービス
	geocoder := geocoding.NewNominatimClient(cfg.Geocoder, logger)
	sms := notify.NewSMSGateway(cfg.SMS, cfg.ProjectName, logger)
	var mailer repository.Mailer = notify.NewNopMailer(logger)
	if cfg.Mail.Enabled {
		mailer = notify.NewSMTPMailer(cfg.Mail, cfg.ProjectName, logger)
	}

	// ドメインサービス
	index := service.NewProximityIndex(geoIndex)
	checker := service.NewZoneChecker(zones, logger)
	tokens := auth.NewTokenManager(cfg.Auth.SecretKey, cfg.Auth.AccessTokenExpire)
	registry := auth.NewScopeRegistry()

	// ユースケース
	locationUC := usecase.NewLocationUseCase(usecase.LocationDeps{
		Tx:         db,
		Locations:  locations,
		ChangeLogs: changelogs,
		Users:      users,
		Index:      index,
		Zones:      checker,
		Geocoder:   geocoder,
		AllowWipe:  cfg.IsTest(),
		Logger:     logger,
	})
	bulkUC := usecase.NewBulkImportUseCase(locationUC, users, geocoder, cfg.Auth.FirstSuperuser, logger)
	userUC := usecase.NewUserUseCase(usecase.UserDeps{
		Tx:            db,
		Users:         users,
		Organizations: orgs,
		Oauth:         oauthRepo,
		ChangeLogs:    changelogs,
		Activity:      activity,
		Mailer:        mailer,
		DomainAddress: cfg.Mail.DomainAddress,
		TokenExpire:   cfg.Auth.RegistrationTokenExpire,
		Logger:        logger,
	})
	orgUC := usecase.NewOrganizationUseCase(db, orgs, users, changelogs, activity, userUC, logger)
	oauthUC := usecase.NewOauthUseCase(db, oauthRepo, registry, logger)
	authUC := usecase.NewAuthUseCase(users, sessions, oauthRepo, tokens, registry, logger)
	guestUC := usecase.NewGuestUseCase(usecase.GuestDeps{
		Guests:    guests,
		OTP:       cache.NewRedisOTPStore(rdb),
		Limiter:   cache.NewRedisRateLimiter(rdb),
		SMS:       sms,
		Locations: locationUC,
		Enabled:   cfg.Mail.Enabled,
		Expire:    cfg.OTP.Expire,
		HourLimit: cfg.OTP.HourRateLimit,
		Logger:    logger,
	})
	seedUC := usecase.NewSeedUseCase(db, oauthRepo, orgs, users, phoneCodes,
		cfg.Auth.FirstSuperuser, cfg.Auth.FirstSuperuserPassword, logger)

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		redis:  rdb,
		oauth:  oauthUC,
		seed:   seedUC,
		bulk:   bulkUC,
		handlers: handler.Handlers{
			Auth:          handler.NewAuthenticator(authUC),
			Login:         handler.NewAuthHandler(authUC),
			Users:         handler.NewUserHandler(userUC),
			Organizations: handler.NewOrganizationHandler(orgUC),
			Locations:     handler.NewLocationHandler(locationUC, bulkUC),
			Zones:         handler.NewZoneHandler(usecase.NewZoneUseCase(zones, geocoder, checker, logger)),
			ChangeLogs:    handler.NewChangeLogHandler(usecase.NewChangeLogUseCase(db, changelogs)),
			Oauth:         handler.NewOauthHandler(oauthUC),
			Guests:        handler.NewGuestHandler(guestUC),
			Reference:     handler.NewReferenceHandler(usecase.NewReferenceUseCase(phoneCodes, activity, geocoder)),
			DB:            db,
		},
	}, nil
}

// router ginのルーターを作成
func (a *app) router() *gin.Engine {
	if a.cfg.EnvType == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	return handler.NewRouter(a.handlers, a.cfg.ProjectName, a.logger)
}

// warmUp 起動時にロールのスコープを読み込み、Redisの疎通を確認する
func (a *app) warmUp(ctx context.Context) error {
	if err := a.oauth.ReloadRegistry(ctx); err != nil {
		return fmt.Errorf("スコープレジストリの読み込み失敗: %w", err)
	}
	if err := cache.Ping(ctx, a.redis); err != nil {
		a.logger.Warn("Redisに接続できません。ゲストOTPは利用できません", zap.Error(err))
	}
	return nil
}

func (a *app) close() {
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("Redisのクローズ失敗", zap.Error(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("データベースのクローズ失敗", zap.Error(err))
	}
}
