package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	appidentity "github.com/vres/backend/internal/application/identity"
	appvoucher "github.com/vres/backend/internal/application/voucher"
	"github.com/vres/backend/internal/domain/voucher"
	"github.com/vres/backend/internal/infrastructure/auth"
	"github.com/vres/backend/internal/infrastructure/cache"
	"github.com/vres/backend/internal/infrastructure/config"
	"github.com/vres/backend/internal/infrastructure/logger"
	"github.com/vres/backend/internal/infrastructure/notification"
	"github.com/vres/backend/internal/infrastructure/persistence"
	"github.com/vres/backend/internal/infrastructure/qr"
	"github.com/vres/backend/internal/infrastructure/storage"
	"github.com/vres/backend/internal/interfaces/http/handler"
	"github.com/vres/backend/internal/interfaces/http/middleware"
	"github.com/vres/backend/internal/interfaces/http/router"
)

const dispatcherTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, gormlogger.Warn)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	voucherRepo := persistence.NewGormVoucherRepository(db.DB)
	redemptionRepo := persistence.NewGormRedemptionRepository(db.DB)
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	benefRepo := persistence.NewGormBeneficiaryRepository(db.DB)
	bindingRepo := persistence.NewGormVendorBindingRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// Infrastructure adapters
	objectStore, err := buildObjectStorage(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	smsSender, emailSender := buildSenders(cfg, log)
	dispatcher := notification.NewAsyncDispatcher(dispatcherTimeout, log)

	limiterFactory := cache.NewAttemptLimiterFactory(
		cfg.Redis, cfg.Voucher.AttemptLimit, cfg.Voucher.AttemptWindow,
		cache.WithLogger(log), cache.WithInMemoryFallback(true))
	limiter, err := limiterFactory.CreateLimiter()
	if err != nil {
		log.Fatal("Failed to initialize attempt limiter", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	// Application services
	engineCfg := appvoucher.Config{
		OTPValidity:     cfg.Voucher.OTPValidity(),
		CodeLength:      cfg.Voucher.CodeLength,
		CodeMaxAttempts: cfg.Voucher.CodeMaxAttempts,
		QRSize:          cfg.Voucher.QRSize,
	}
	codeGen := voucher.NewRandomCodeGenerator(cfg.Voucher.CodeLength)
	otpGen := voucher.NewNumericOTPGenerator()

	voucherService := appvoucher.NewVoucherService(
		voucherRepo, projectRepo, objectStore, otpGen, engineCfg, log)
	issuanceService := appvoucher.NewIssuanceService(
		voucherRepo, projectRepo, benefRepo, bindingRepo,
		codeGen, qr.NewEncoder(), objectStore, smsSender, dispatcher, engineCfg, log)
	redemptionService := appvoucher.NewRedemptionService(
		voucherRepo, projectRepo, benefRepo, bindingRepo, userRepo,
		otpGen, smsSender, dispatcher, limiter, engineCfg, log)
	redemptionQueryService := appvoucher.NewRedemptionQueryService(redemptionRepo, log)
	sweepService := appvoucher.NewSweepService(projectRepo, userRepo, emailSender, log)
	authService := appidentity.NewAuthService(userRepo, jwtService, log)

	engine := buildEngine(cfg, log, jwtService)

	systemHandler := handler.NewSystemHandler(db.DB, log)
	router.New().Register(
		systemHandler,
		handler.NewAuthHandler(authService, log),
		handler.NewVoucherHandler(voucherService, issuanceService, log),
		handler.NewRedemptionHandler(redemptionService, redemptionQueryService, log),
		handler.NewTaskHandler(sweepService, log),
	).Setup(engine)

	// Root-level health endpoint for load balancer probes
	engine.GET("/health", systemHandler.Health)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()
	log.Info("Server listening", zap.String("addr", srv.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	dispatcher.Wait()
	log.Info("Server stopped")
}

// buildObjectStorage returns the S3 store when a bucket is configured and
// reachable, otherwise an in-process store so the service can still boot in
// development.
func buildObjectStorage(cfg *config.Config, log *zap.Logger) (appvoucher.ObjectStorage, error) {
	if cfg.Storage.Endpoint == "" && cfg.Storage.AccessKeyID == "" && cfg.App.Env == "development" {
		log.Warn("No object storage configured, using in-memory store. QR images will not survive restarts.")
		return storage.NewMemoryObjectStorage(), nil
	}

	s3Store, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3Store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s3Store, nil
}

// buildSenders wires SMS and email delivery, degrading to log-only senders
// when a channel is disabled or misconfigured.
func buildSenders(cfg *config.Config, log *zap.Logger) (appvoucher.NotificationSender, appvoucher.EmailSender) {
	logSender := notification.NewLogSender(log)

	var sms appvoucher.NotificationSender = logSender
	if cfg.SMS.Enabled {
		snsSender, err := notification.NewSNSSender(&cfg.SMS, log)
		if err != nil {
			log.Warn("SNS unavailable, SMS delivery falls back to logging", zap.Error(err))
		} else {
			sms = snsSender
		}
	}

	var email appvoucher.EmailSender = logSender
	if cfg.Email.Enabled {
		smtpSender, err := notification.NewSMTPSender(&cfg.Email)
		if err != nil {
			log.Warn("SMTP unavailable, email delivery falls back to logging", zap.Error(err))
		} else {
			email = smtpSender
		}
	}

	return sms, email
}

func buildEngine(cfg *config.Config, log *zap.Logger, jwtService *auth.JWTService) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Invalid trusted proxies configuration", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))

	if cfg.HTTP.RateLimitEnabled {
		perSecond := float64(cfg.HTTP.RateLimitRequests) / cfg.HTTP.RateLimitWindow.Seconds()
		engine.Use(middleware.NewRateLimiter(perSecond, cfg.HTTP.RateLimitRequests).Middleware())
	}

	engine.Use(middleware.JWTAuth(middleware.JWTAuthConfig{
		Service: jwtService,
		SkipPaths: []string{
			"/health",
			"/api/v1/health",
			"/api/v1/ping",
			"/api/v1/auth/login",
		},
	}))

	return engine
}
