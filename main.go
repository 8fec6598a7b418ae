package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"parkingapp/cache"
	"parkingapp/config"
	"parkingapp/database"
	"parkingapp/handlers"
	"parkingapp/jobs"
	"parkingapp/logs"
	"parkingapp/mailer"
	"parkingapp/reports"
	"parkingapp/repository"
	"parkingapp/routes"
	"parkingapp/services"
	"parkingapp/utils"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()
	if err := logs.Init(logs.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, File: cfg.Logging.File}); err != nil {
		logs.Logger.Fatalf("Failed to initialize logger: %v", err)
	}
	gin.SetMode(cfg.Server.GinMode)
	logs.Logger.Infof("Gin mode set to %s", cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	tokens := utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	accounts := services.NewAccountService(store, tokens)
	if err := accounts.EnsureDefaults(ctx, cfg.Admin.Email, cfg.Admin.Name, cfg.Admin.Password); err != nil {
		logs.Logger.Fatalf("Failed to seed default roles and admin: %v", err)
	}

	listings := services.NewListingCache(openCache(ctx, cfg), cfg.Cache.TTL)

	sender := mailer.NewSMTPSender(mailer.Options{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})
	rep := reports.New(store, sender, cfg.Reports.ExportDir)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	runner, waitWorkers := startJobs(workerCtx, cfg, store)
	rep.Register(runner)

	c := cron.New()
	if _, err := jobs.Schedule(c, runner, cfg.Jobs.ReminderCron, jobs.DailyReminder); err != nil {
		logs.Logger.Fatalf("Failed to schedule daily reminder: %v", err)
	}
	if _, err := jobs.Schedule(c, runner, cfg.Jobs.MonthlyCron, jobs.MonthlyReservationReport); err != nil {
		logs.Logger.Fatalf("Failed to schedule monthly report: %v", err)
	}
	c.Start()
	logs.Logger.Info("Cron jobs started")

	h := &handlers.Handler{
		Accounts:  accounts,
		Inventory: services.NewInventoryService(store, listings),
		Bookings:  services.NewBookingService(store, listings, cfg.Location()),
		Admin:     services.NewAdminService(store),
		Jobs:      runner,
		Reports:   rep,
	}
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           routes.NewRouter(h, accounts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logs.Logger.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logs.Logger.Info("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logs.Logger.Errorf("Server forced to shut down: %v", err)
	}
	<-c.Stop().Done()
	cancelWorkers()
	waitWorkers()
	logs.Logger.Info("Server exited")
}

// openStore uses an in-memory SQLite database when no driver is configured.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func()) {
	var db *gorm.DB
	var err error
	if cfg.Database.Driver == "" {
		logs.Logger.Warn("No database driver configured, using in-memory SQLite")
		db, err = database.OpenMemory(ctx, "parking")
		if err != nil {
			logs.Logger.Fatalf("Failed to open in-memory database: %v", err)
		}
	} else {
		db, err = database.Open(ctx, database.Options{
			Driver:        cfg.Database.Driver,
			DSN:           cfg.Database.DSN,
			MaxRetries:    cfg.Database.MaxRetries,
			RetryInterval: cfg.Database.RetryInterval,
			GinMode:       cfg.Server.GinMode,
		})
		if err != nil {
			logs.Logger.Fatalf("Failed to connect to database: %v", err)
		}
		if err := database.Migrate(db); err != nil {
			logs.Logger.Fatalf("Failed to migrate database: %v", err)
		}
	}
	return repository.NewGormStore(db), func() {
		if err := database.Close(db); err != nil {
			logs.Logger.Errorf("Failed to close database: %v", err)
		}
	}
}

// openCache falls back to the in-memory cache when Redis is unreachable.
func openCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.Cache.Driver != "redis" {
		return cache.NewMemory()
	}
	client, err := cache.DialRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
	if err != nil {
		logs.Logger.Warnf("Redis unavailable, using in-memory cache: %v", err)
		return cache.NewMemory()
	}
	logs.Logger.Infof("Connected to redis at %s", cfg.Cache.RedisAddr)
	return cache.NewRedis(client, "parking:")
}

// startJobs builds the runner on the configured dispatcher and starts its
// workers. The returned func waits for in-flight jobs after ctx is cancelled.
func startJobs(ctx context.Context, cfg *config.Config, store repository.Store) (*jobs.Runner, func()) {
	if cfg.Jobs.Driver == "rabbitmq" {
		broker, err := jobs.DialAMQP(cfg.Jobs.AMQPURL, cfg.Jobs.Queue)
		if err != nil {
			logs.Logger.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		runner := jobs.NewRunner(store.Jobs(), broker)
		if err := broker.Start(ctx, runner); err != nil {
			logs.Logger.Fatalf("Failed to start job consumer: %v", err)
		}
		return runner, func() {
			broker.Wait()
			broker.Close()
		}
	}
	pool := jobs.NewLocalPool(cfg.Jobs.Workers, cfg.Jobs.Workers*16)
	runner := jobs.NewRunner(store.Jobs(), pool)
	pool.Start(ctx, runner)
	return runner, pool.Wait
}
