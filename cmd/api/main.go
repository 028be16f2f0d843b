package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/email"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/handler"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/identity"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/middleware"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/ratelimit"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/repository"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/config"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/services"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/logging"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/metrics"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/server"
)

func main() {
	envFile := pflag.String("env-file", "", "dotenv file to load before reading the environment (default .env)")
	migrate := pflag.Bool("migrate", false, "apply the embedded schema before serving")
	seedTemplates := pflag.String("seed-templates", "", "YAML file of cleaning templates to upsert at startup")
	addr := pflag.String("addr", "", "listen address (default :$PORT)")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	logger := logging.New(cfg.Log)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if *addr == "" {
		*addr = ":" + cfg.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Every collaborator is optional. Endpoints that need a missing one fail
	// closed at request time.
	var (
		staffRepo    ports.StaffRepository
		bookingRepo  ports.BookingRepository
		cleaningRepo ports.CleaningRepository
		roomRepo     ports.RoomRepository
		checks       = map[string]handler.Pinger{"database": nil, "redis": nil}
	)

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		db.SetMaxOpenConns(20)
		db.SetConnMaxIdleTime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			logger.Warn("database not reachable at startup", "err", err)
		}

		if *migrate {
			if err := repository.Migrate(ctx, db); err != nil {
				logger.Error("migration failed", "err", err)
				os.Exit(1)
			}
			logger.Info("schema applied")
		}

		cleaning := repository.NewCleaningRepository(db)
		if *seedTemplates != "" {
			n, err := repository.SeedTemplates(ctx, cleaning, *seedTemplates)
			if err != nil {
				logger.Error("template seed failed", "file", *seedTemplates, "err", err)
				os.Exit(1)
			}
			logger.Info("cleaning templates seeded", "count", n)
		}

		staffRepo = repository.NewStaffRepository(db)
		bookingRepo = repository.NewBookingRepository(db)
		cleaningRepo = cleaning
		roomRepo = repository.NewRoomRepository(db)
		checks["database"] = db
	} else {
		logger.Warn("DB_CONNECTION_STRING not set, data endpoints will answer 503")
	}

	var throttle ports.LoginThrottle
	if cfg.RedisAddress != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis not reachable at startup", "err", err)
		}
		throttle = ratelimit.NewLoginLimiter(redisClient, cfg.LoginMaxAttempts, cfg.LoginWindow)
		checks["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	} else {
		logger.Warn("REDIS_ADDRESS not set, legacy login is not throttled")
	}

	var (
		notifier     ports.BookingNotifier
		inviteMailer ports.InviteMailer
	)
	if cfg.ResendAPIKey != "" {
		templates, err := email.LoadTemplates()
		if err != nil {
			logger.Error("failed to load email templates", "err", err)
			os.Exit(1)
		}
		n := email.NewNotifier(
			email.NewResendClient(cfg.ResendAPIKey, cfg.ResendBaseURL, nil),
			templates,
			cfg.EmailFrom,
			cfg.BookingNotifyTo,
		)
		notifier = n
		inviteMailer = n
	} else {
		logger.Warn("RESEND_API_KEY not set, booking intake will fail")
	}

	var provider ports.IdentityProvider
	switch cfg.IdentityProvider {
	case config.IdentityGoTrue:
		provider = identity.NewGoTrueClient(identity.GoTrueConfig{
			URL:        cfg.IdentityURL,
			AnonKey:    cfg.IdentityAnonKey,
			ServiceKey: cfg.IdentityServiceKey,
			JWTSecret:  cfg.IdentityJWTSecret,
		})
	case config.IdentityFirebase:
		client, err := identity.NewFirebaseAuth(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentials)
		if err != nil {
			logger.Error("failed to init firebase", "err", err)
			os.Exit(1)
		}
		provider = identity.NewFirebaseProvider(client, inviteMailer)
	default:
		logger.Warn("no identity provider configured, only the legacy admin login works")
	}
	if provider != nil {
		logger.Info("identity provider configured", "provider", cfg.IdentityProvider)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	legacySessions := services.NewLegacySessions(time.Now)
	sessionService := services.NewSessionService(provider, staffRepo, legacySessions, cfg.ProviderCookieName, logger)
	legacyAuth := services.NewLegacyAuthService(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminPasswordHash, legacySessions, throttle, logger)
	staffService := services.NewStaffService(staffRepo, provider, cfg.BaseURL, time.Now, logger)
	bookingService := services.NewBookingService(bookingRepo, roomRepo, notifier, services.BookingConfig{
		HostelID:          cfg.HostelID,
		Location:          cfg.HostelTimezone,
		RequirePhone:      cfg.BookingRequirePhone,
		StrictTransitions: cfg.StrictStatusTransitions,
	}, time.Now, logger)
	cleaningService := services.NewCleaningService(cleaningRepo, cfg.HostelTimezone, cfg.StrictStatusTransitions, time.Now, logger)
	roomService := services.NewRoomService(roomRepo, time.Now)

	router := server.NewRouter(cfg, logger, m, reg, middleware.NewAuthMiddleware(sessionService, logger), server.Handlers{
		Health:   handler.NewHealthHandler(cfg.Version, checks, logger),
		Auth:     handler.NewAuthHandler(legacyAuth, sessionService, staffService, cfg.Production(), m.LoginAttempts, logger),
		Staff:    handler.NewStaffHandler(staffService, logger),
		Bookings: handler.NewBookingHandler(bookingService, cfg.HostelID, m.BookingsCreated, logger),
		Cleaning: handler.NewCleaningHandler(cleaningService, logger),
		Rooms:    handler.NewRoomHandler(roomService, logger),
	})

	if err := server.Start(ctx, cfg, *addr, router, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
