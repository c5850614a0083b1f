package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ReservationService/internal/app"
	"github.com/m04kA/SMC-ReservationService/internal/config"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	cacheRefcounter "github.com/m04kA/SMC-ReservationService/internal/infra/cache/refcounter"
	bookingRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/memory"
	paymentRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/payment"
	refcounterRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/refcounter"
	refundRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/refund"
	resourceRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/resource"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationService/internal/scheduler"
	"github.com/m04kA/SMC-ReservationService/internal/worker/expiration"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
	"github.com/m04kA/SMC-ReservationService/pkg/txmanager"
)

func main() {
	configPath := os.Getenv("RESERVATION_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ReservationService...")
	log.Info("Configuration loaded from %s", configPath)

	location, err := cfg.Reference.Location()
	if err != nil {
		log.Fatal("Failed to load timezone: %v", err)
	}

	ctx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Redis нужен для счетчика номеров, блокировки фонового прохода и очереди задач
	var redisClient *redis.Client
	if cfg.Reference.Store == "redis" || cfg.Expiration.Enabled || cfg.Scheduler.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("Redis is unavailable (addr=%s): %v", cfg.Redis.Addr, err)
			if cfg.Reference.Store == "redis" {
				log.Fatal("Reference store requires redis")
			}
			// Без redis фоновый проход работает с блокировкой в пределах процесса
			redisClient = nil
		} else {
			log.Info("Successfully connected to redis (addr=%s)", cfg.Redis.Addr)
		}
	}

	// Инициализируем хранилище
	var storage app.Storage

	switch cfg.Database.Driver {
	case "postgres":
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Настраиваем connection pool
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

		if err := db.PingContext(ctx); err != nil {
			log.Fatal("Failed to ping database: %v", err)
		}
		log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

		var wrappedDB *dbmetrics.DB
		if cfg.Metrics.Enabled {
			wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
			log.Info("Database metrics collection started")
		} else {
			wrappedDB = dbmetrics.Wrap(db, nil)
		}

		storage = app.Storage{
			Bookings:  bookingRepo.NewRepository(wrappedDB),
			Resources: resourceRepo.NewRepository(wrappedDB),
			Payments:  paymentRepo.NewRepository(wrappedDB),
			Refunds:   refundRepo.NewRepository(wrappedDB),
			TxManager: txmanager.NewTransactionManager(wrappedDB),
		}
		if cfg.Reference.Store == "postgres" {
			storage.Counters = refcounterRepo.NewRepository(wrappedDB)
		}
	case "memory":
		store := memory.NewStore()
		for _, r := range cfg.Resources {
			kind, _ := domain.ParseReservationKind(r.Kind)
			store.PutResource(domain.Resource{
				Kind:          kind,
				ID:            r.ID,
				ParentID:      r.ParentID,
				Name:          r.Name,
				GuestCapacity: r.GuestCapacity,
				UnitCapacity:  r.UnitCapacity,
				Maintenance:   r.Maintenance,
			})
		}
		log.Info("In-memory storage initialized with %d resources", len(cfg.Resources))

		storage = app.Storage{
			Bookings:  store.Bookings(),
			Resources: store.Resources(),
			Payments:  store.Payments(),
			Refunds:   store.Refunds(),
			TxManager: store.TxManager(),
		}
		if cfg.Reference.Store == "memory" {
			storage.Counters = store.Counters()
		}
	}

	if cfg.Reference.Store == "redis" {
		storage.Counters = cacheRefcounter.NewStore(redisClient, cacheRefcounter.DefaultTTL)
	}
	log.Info("Reference counter store: %s (timezone=%s)", cfg.Reference.Store, location)

	opts := app.Options{
		Location: location,
		Metrics:  metricsCollector,
	}
	if cfg.Metrics.Enabled {
		opts.Router.MetricsPath = cfg.Metrics.Path
		opts.Router.MetricsHandler = promhttp.Handler()
	}

	// Инициализируем публикацию уведомлений
	var publisher message.Publisher
	if cfg.Notifications.Enabled {
		wmLogger := logger.NewWatermillAdapter(log)

		switch cfg.Notifications.Transport {
		case "amqp":
			publisher, err = notifier.NewAMQPPublisher(cfg.Notifications.AMQPURL, wmLogger)
			if err != nil {
				log.Fatal("Failed to connect to AMQP broker: %v", err)
			}
		case "gochannel":
			channel := notifier.NewGoChannel(wmLogger)
			publisher = channel
			go func() {
				if err := notifier.RunLogSink(ctx, channel, cfg.Notifications.Topic, log); err != nil {
					log.Error("Notification log sink stopped: %v", err)
				}
			}()
		}

		opts.Notifier = notifier.NewPublisher(publisher, cfg.Notifications.Topic, metricsCollector, log)
		log.Info("Notifications enabled (transport=%s, topic=%s)", cfg.Notifications.Transport, cfg.Notifications.Topic)
	}

	// Инициализируем очередь отложенных задач
	var asynqOpt asynq.RedisClientOpt
	var asynqClient *asynq.Client
	if cfg.Scheduler.Enabled {
		asynqOpt = asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		asynqClient = asynq.NewClient(asynqOpt)
		defer asynqClient.Close()

		opts.Scheduler = scheduler.NewClient(asynqClient, cfg.Scheduler.Queue, log)
		opts.Router.MonitorPath = cfg.Scheduler.MonitorPath
		opts.Router.Monitor = scheduler.NewMonitor(asynqOpt, cfg.Scheduler.MonitorPath)
		log.Info("Expiry scheduler enabled (queue=%s, monitor=%s)", cfg.Scheduler.Queue, cfg.Scheduler.MonitorPath)
	}

	// Собираем сервисы, use cases и роутер
	application := app.New(storage, opts, log)

	var taskServer *asynq.Server
	if cfg.Scheduler.Enabled {
		taskServer = scheduler.NewServer(asynqOpt, scheduler.ServerConfig{
			Concurrency: cfg.Scheduler.Concurrency,
			Queue:       cfg.Scheduler.Queue,
		}, log.Sugar())

		if err := taskServer.Start(scheduler.NewHandler(application.Bookings, log).Mux()); err != nil {
			log.Fatal("Failed to start task server: %v", err)
		}
		log.Info("Task server started (concurrency=%d)", cfg.Scheduler.Concurrency)
	}

	// Фоновый проход по просроченным бронированиям
	if cfg.Expiration.Enabled {
		var locker expiration.Locker
		if redisClient != nil {
			locker = expiration.NewRedisLocker(redisClient, time.Duration(cfg.Expiration.LockTTL)*time.Second)
		}

		worker := expiration.NewWorker(
			application.Bookings,
			locker,
			time.Duration(cfg.Expiration.Interval)*time.Second,
			cfg.Expiration.BatchSize,
			log,
		)
		go worker.Start(ctx)
		log.Info("Expiration worker started (interval=%ds, batch=%d)", cfg.Expiration.Interval, cfg.Expiration.BatchSize)
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      application.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем фоновые процессы
	cancelWorkers()

	if taskServer != nil {
		taskServer.Shutdown()
		log.Info("Task server stopped")
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error("Failed to close notification publisher: %v", err)
		}
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
