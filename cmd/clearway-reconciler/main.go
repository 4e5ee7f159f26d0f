// Clearway Reconciler — периодическая сверка статусов с расчётной сетью.
//
// Reconciler:
//   - По расписанию (интервал или cron) опрашивает незавершённые отправки
//   - Переводит подтверждённые в COMPLETED, отклонённые в FAILED
//   - Помечает пропавшие из сети транзакции как отклонённые
//
// Расписание задаётся через RECONCILE_SCHEDULE: "30s", "5m"
// или cron-выражение "*/5 * * * *".
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Clearway/internal/config"
	"github.com/shaiso/Clearway/internal/mq"
	"github.com/shaiso/Clearway/internal/protocol"
	"github.com/shaiso/Clearway/internal/reconciler"
	"github.com/shaiso/Clearway/internal/repo"
	"github.com/shaiso/Clearway/internal/telemetry"
	"github.com/shaiso/Clearway/internal/tracker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting clearway-reconciler")

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

	submissionRepo := repo.NewSubmissionRepo(pool)

	// RabbitMQ: без брокера статусы не публикуются, сверка работает
	var publisher *mq.Publisher
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, status events disabled", "error", err)
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

	schedule, err := reconciler.ParseSchedule(config.ReconcileSchedule(provider))
	if err != nil {
		logger.Error("invalid reconcile schedule", "error", err)
		os.Exit(1)
	}

	rec := reconciler.New(tr, network, schedule, logger)

	go func() {
		if err := rec.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("reconciler stopped", "error", err)
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

	port := ":8082"
	if v := os.Getenv("RECONCILER_PORT"); v != "" {
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
	logger.Info("clearway-reconciler stopped")
}
