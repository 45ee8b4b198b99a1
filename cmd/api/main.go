package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unibus-go-api/internal/config"
	"github.com/noah-isme/unibus-go-api/internal/database"
	"github.com/noah-isme/unibus-go-api/internal/handler"
	"github.com/noah-isme/unibus-go-api/internal/middleware"
	"github.com/noah-isme/unibus-go-api/internal/models"
	"github.com/noah-isme/unibus-go-api/internal/qr"
	"github.com/noah-isme/unibus-go-api/internal/repository"
	"github.com/noah-isme/unibus-go-api/internal/router"
	"github.com/noah-isme/unibus-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Shift{},
		&models.AttendanceRecord{},
		&models.Student{},
		&models.Subscription{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	shiftRepo := repository.NewShiftRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()

	monitorService := service.NewMonitorService(natsConn, cfg.NATSScanSubject, logger)
	monitorService.Start(monitorCtx)

	activityService := service.NewActivityService(activityRepo, logger)
	shiftService := service.NewShiftService(shiftRepo, validate, logger)
	scanService := service.NewScanService(service.ScanServiceConfig{
		Shifts:        shiftRepo,
		Attendance:    attendanceRepo,
		Students:      studentRepo,
		Subscriptions: subscriptionRepo,
		Resolver:      qr.NewResolver(),
		Validator:     validate,
		Policy:        cfg.DuplicatePolicy,
		MinimumPaid:   cfg.MinimumPaid,
		Publisher:     monitorService,
		Activity:      activityService,
		Logger:        logger,
	})
	reportService := service.NewReportService(shiftRepo, attendanceRepo, redisClient, cfg.LiveCountCacheTTL, logger)

	shiftHandler := handler.NewShiftHandler(shiftService, reportService, logger)
	attendanceHandler := handler.NewAttendanceHandler(scanService, reportService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)
	monitorHandler := handler.NewMonitorHandler(monitorService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ShiftHandler:      shiftHandler,
		AttendanceHandler: attendanceHandler,
		ActivityHandler:   activityHandler,
		MonitorHandler:    monitorHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		ScanRateLimit:     middleware.RateLimit("scan", cfg.ScanRateMax, cfg.ScanRateWindow, redisClient),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
