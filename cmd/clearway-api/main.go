// Clearway API — HTTP-сервер приёма финансовых сообщений.
//
// API:
//   - Принимает ISO 20022 сообщения (синхронно или через очередь)
//   - Отдаёт записи об отправках в расчётную сеть
//   - Выполняет retry и cancel отправок по запросу оператора
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Clearway/internal/api"
	"github.com/shaiso/Clearway/internal/cache"
	"github.com/shaiso/Clearway/internal/config"
	"github.com/shaiso/Clearway/internal/extract"
	"github.com/shaiso/Clearway/internal/mq"
	"github.com/shaiso/Clearway/internal/orchestrator"
	"github.com/shaiso/Clearway/internal/pipeline"
	"github.com/shaiso/Clearway/internal/processing"
	"github.com/shaiso/Clearway/internal/protocol"
	"github.com/shaiso/Clearway/internal/repo"
	"github.com/shaiso/Clearway/internal/telemetry"
	"github.com/shaiso/Clearway/internal/tracker"
	"github.com/shaiso/Clearway/internal/transform"
	"github.com/shaiso/Clearway/internal/validation"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clearway_api_http_requests_total",
		Help: "Total HTTP requests handled by clearway_api",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting clearway-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	messageRepo := repo.NewMessageRepo(pool)
	submissionRepo := repo.NewSubmissionRepo(pool)

	// Кэш схем валидации: Redis, при недоступности — in-memory
	var schemaCache cache.Provider
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		rc, err := cache.NewRedis(ctx, redisURL, logger)
		if err != nil {
			logger.Warn("Redis not available, using in-memory cache", "error", err)
			schemaCache = cache.NewMemory()
		} else {
			defer rc.Close()
			schemaCache = rc
		}
	} else {
		schemaCache = cache.NewMemory()
	}

	// RabbitMQ: без брокера работает только синхронный приём
	var publisher *mq.Publisher
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, async intake disabled", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	provider := config.Env{}
	network := protocol.NewHTTPClient(os.Getenv("NETWORK_URL"))

	// Типизированный nil в интерфейсе обошёл бы проверку в tracker
	var statusPublisher tracker.StatusPublisher
	if publisher != nil {
		statusPublisher = publisher
	}

	tr := tracker.New(submissionRepo, network, statusPublisher, provider, logger)

	processor, err := processing.New(processing.Config{
		Submit: pipeline.StageConfig{
			Timeout:            30 * time.Second,
			MaxRetries:         2,
			RetryDelay:         time.Second,
			ExponentialBackoff: true,
		},
	}, extract.NewRegistry(), provider, network, logger)
	if err != nil {
		logger.Error("failed to build processing pipeline", "error", err)
		os.Exit(1)
	}

	orch := orchestrator.New(
		validation.NewFactory(schemaCache, pipeline.StageConfig{}, logger),
		transform.NewFactory(pipeline.StageConfig{}, logger),
		processor,
		tr,
		messageRepo,
		logger,
	)

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		Processor: orch,
		Tracker:   tr,
		Publisher: publisher,
		Logger:    logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
