// Clearway Gateway — асинхронная обработка входящих сообщений.
//
// Gateway:
//   - Потребляет события message.received из RabbitMQ
//   - Проводит сообщение через валидацию, трансформацию и отправку
//   - Подтверждает обработанные события, отправляет битые в DLQ
//
// Gateway масштабируется горизонтально: очередь распределяет
// сообщения между экземплярами.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Clearway/internal/cache"
	"github.com/shaiso/Clearway/internal/config"
	"github.com/shaiso/Clearway/internal/domain"
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

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting clearway-gateway")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

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

	// RabbitMQ обязателен: gateway без очереди бессмысленен
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	publisher := mq.NewPublisher(mqConn, logger)

	provider := config.Env{}
	network := protocol.NewHTTPClient(os.Getenv("NETWORK_URL"))

	tr := tracker.New(submissionRepo, network, publisher, provider, logger)

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

	// Consumer событий message.received
	consumer := mq.NewConsumer(mqConn, logger, mq.ConsumerConfig{
		Queue:    mq.QueueMessagesReceived,
		Prefetch: 5,
	})
	consumer.On(mq.EventMessageReceived, func(ctx context.Context, event *mq.Event) error {
		payload, err := mq.ParsePayload[mq.MessageReceivedPayload](event)
		if err != nil {
			return fmt.Errorf("malformed event payload %s: %w", event.ID, err)
		}

		raw := &domain.RawMessage{
			ID:          payload.MessageID,
			MessageType: payload.MessageType,
			Payload:     payload.Payload,
			ReceivedAt:  payload.ReceivedAt,
		}

		result, err := orch.ProcessMessage(ctx, raw)
		if err != nil {
			return fmt.Errorf("process message %s: %w", raw.ID, err)
		}

		// Невалидное сообщение — обработанный бизнес-результат,
		// повтор его не исправит
		if !result.Success {
			logger.Warn("message rejected", "message_id", raw.ID, "errors", result.Errors)
		}

		return nil
	})

	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("consumer stopped", "error", err)
			cancel()
		}
	}()

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("GATEWAY_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("clearway-gateway stopped")
}
