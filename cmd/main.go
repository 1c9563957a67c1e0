package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ndhu-booking/room-booking-server/captcha"
	"github.com/ndhu-booking/room-booking-server/config"
	"github.com/ndhu-booking/room-booking-server/middleware"
	"github.com/ndhu-booking/room-booking-server/notify"
	"github.com/ndhu-booking/room-booking-server/repository"
	"github.com/ndhu-booking/room-booking-server/routes"
	"github.com/ndhu-booking/room-booking-server/services"
	"github.com/ndhu-booking/room-booking-server/utils"
)

// storage gom mọi thao tác dữ liệu mà các service cần; Store (gorm) và MemoryStore đều đáp ứng.
type storage interface {
	services.BookingStore
	services.ReviewStore
	services.DirectoryStore
	services.AuthStore
	services.ExportStore
	services.RoomReader
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, slotMarks, closeDB, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeDB()

	sender, err := newSender(ctx, cfg, logger)
	if err != nil {
		logger.Error("mail sender", slog.Any("error", err))
		os.Exit(1)
	}
	notifier := notify.NewMailer(sender)

	var verifier captcha.Verifier = captcha.Noop{}
	if cfg.TurnstileSecret != "" {
		verifier = captcha.NewTurnstile(cfg.TurnstileSecret)
	} else {
		// config.Load đã chặn trường hợp production thiếu secret.
		logger.Warn("TURNSTILE_SECRET not set, captcha check disabled (development only)")
	}

	var uploader services.Uploader
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		uploader = utils.NewSupabaseUploader(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret)

	booking := services.NewBookingService(store, tokens, notifier, services.BookingConfig{
		EmailDomain: cfg.EmailDomain,
		VerifyTTL:   cfg.VerifyTokenTTL,
		AdminURL:    cfg.AdminURL(),
	}, logger)
	review := services.NewReviewService(store, notifier, logger)
	schedule := services.NewScheduleService(store, slotMarks)
	directory := services.NewDirectoryService(store, cfg.EmailDomain, logger)
	auth := services.NewAuthService(store, tokens, notifier, verifier, services.AuthConfig{
		EmailDomain: cfg.EmailDomain,
		FrontendURL: cfg.FrontendURL,
		LoginTTL:    cfg.LoginTokenTTL,
		SessionTTL:  cfg.SessionTokenTTL,
	}, logger)
	if err := seedAdmins(ctx, cfg, directory, logger); err != nil {
		logger.Error("bootstrap admins", slog.Any("error", err))
		os.Exit(1)
	}
	exports := services.NewExportService(store, uploader, cfg.ExportDir, logger)

	intakeLimiter := middleware.NewIPRateLimiter(cfg.IntakePerMinute, 5, 5*time.Minute)
	defer intakeLimiter.Stop()
	loginLimiter := middleware.NewIPRateLimiter(cfg.LoginPerMinute, 3, 5*time.Minute)
	defer loginLimiter.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if err := r.SetTrustedProxies(nil); err != nil {
		panic(err)
	}

	routes.SetupRoutes(r, routes.NewDeps(store, directory, schedule, booking, review, auth, exports, intakeLimiter, loginLimiter))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", slog.String("port", cfg.Port), slog.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
	}
	exports.Wait()
}

func seedAdmins(ctx context.Context, cfg *config.Config, directory *services.DirectoryService, logger *slog.Logger) error {
	seeds, err := cfg.AdminSeeds()
	if err != nil {
		return err
	}
	in := make([]services.AdminInput, 0, len(seeds))
	for _, s := range seeds {
		in = append(in, services.AdminInput{Email: s.Email, Name: s.Name, NotifyReview: true})
	}
	seeded, err := directory.SeedAdmins(ctx, in)
	if err != nil {
		return err
	}
	if seeded {
		logger.Info("bootstrap admins created", slog.Int("admins", len(in)))
	} else if len(in) == 0 {
		if admins, err := directory.Admins(ctx); err == nil && len(admins) == 0 {
			logger.Warn("no admin configured, set BOOTSTRAP_ADMINS to create the first one")
		}
	}
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// openStorage chọn backend theo DB_DRIVER; lịch tuần đọc qua pool sqlx riêng khi dùng postgres.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage, services.SlotMarkReader, func(), error) {
	if cfg.DBDriver == "memory" {
		logger.Warn("using in-memory storage, data is lost on restart")
		mem := repository.NewMemoryStore()
		return mem, mem, func() {}, nil
	}

	db, err := config.ConnectDB(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	readDB, err := config.ConnectReadDB(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("connected to PostgreSQL & migrated successfully")

	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = readDB.Close()
	}
	return repository.NewStore(db), repository.NewScheduleReader(readDB), closeFn, nil
}

func newSender(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notify.Sender, error) {
	switch cfg.MailProvider {
	case "http":
		return notify.NewHTTPSender(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom), nil
	case "gmail":
		return notify.NewGmailSender(ctx, cfg.GmailCredentialsFile, cfg.MailFrom)
	default:
		return notify.NewLogSender(logger), nil
	}
}
