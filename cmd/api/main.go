package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/config"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
	appHTTP "github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/queue"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/attendance"
	correctionService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/correction"
	notificationService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/notification"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.SlogLevel(),
	})).With(slog.String("app", cfg.App.Name), slog.String("env", cfg.App.Env)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	transactor := postgresql.NewTransactor(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	absenceRepo := postgresql.NewAbsenceRepository(db)
	eventRepo := postgresql.NewClockEventRepository(db)
	correctionRepo := postgresql.NewCorrectionRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)

	hub := sse.NewHub[notification.NotificationResponse](10)
	notifService := notificationService.NewNotificationService(notificationRepo, hub, notificationService.Config{
		BatchSize:     cfg.Notification.BatchSize,
		FlushInterval: cfg.Notification.FlushInterval,
		WorkerCount:   cfg.Notification.WorkerCount,
		QueueSize:     cfg.Notification.QueueSize,
	})
	defer notifService.Stop()

	sink := notification.MultiSink{notifService}
	if cfg.Queue.Enabled {
		sqsClient, err := queue.NewSQSClient(ctx, queue.AWSOptions{
			Region:   cfg.Queue.Region,
			Endpoint: cfg.Queue.Endpoint,
		})
		if err != nil {
			return fmt.Errorf("create sqs client: %w", err)
		}
		sink = append(sink, queue.NewPublisher(sqsClient, cfg.Queue.QueueURL))
		slog.Info("publishing notifications to sqs", "queue_url", cfg.Queue.QueueURL)
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	attendanceSvc := attendanceService.NewAttendanceService(eventRepo, employeeRepo, absenceRepo)
	correctionSvc := correctionService.NewCorrectionService(transactor, correctionRepo, eventRepo, employeeRepo, sink)

	router := appHTTP.NewRouter(
		cfg.App,
		JWTService,
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewCorrectionHandler(correctionSvc),
		appHTTP.NewNotificationHandler(notifService, JWTService),
	)

	if cfg.Cron.Enabled {
		scheduler := cron.NewScheduler()
		cron.NewAttendanceJobs(eventRepo, sink, cfg.Cron.OpenShiftMaxAge, cfg.Cron.OpenShiftInterval).RegisterJobs(scheduler)
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Request contexts are cancelled when shutdown begins so open SSE streams return.
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(cancelRequests)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
