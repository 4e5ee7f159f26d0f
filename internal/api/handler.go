package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/Clearway/internal/domain"
	"github.com/shaiso/Clearway/internal/mq"
	"github.com/shaiso/Clearway/internal/tracker"
)

// Processor — синхронная обработка входящего сообщения.
type Processor interface {
	ProcessMessage(ctx context.Context, raw *domain.RawMessage) (*domain.ProcessingResult, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	processor Processor
	tracker   *tracker.Tracker
	publisher *mq.Publisher
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Processor Processor
	Tracker   *tracker.Tracker
	// Publisher может быть nil: без брокера async-приём недоступен.
	Publisher *mq.Publisher
	Logger    *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		processor: cfg.Processor,
		tracker:   cfg.Tracker,
		publisher: cfg.Publisher,
		logger:    logger,
	}
}
