package transform

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaiso/Clearway/internal/pipeline"
)

// Factory строит трансформационный pipeline под тип сообщения.
//
// Реестр наборов стадий заполняется встроенными builders и может
// быть дополнен через Register. Промах — фатальная ошибка
// конфигурации, а не тихий default.
type Factory struct {
	cfg    pipeline.StageConfig
	logger *slog.Logger

	mu       sync.RWMutex
	builders map[string]func() []*Stage
}

// NewFactory создаёт фабрику со встроенными наборами стадий.
func NewFactory(cfg pipeline.StageConfig, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}

	f := &Factory{
		cfg:      cfg,
		logger:   logger,
		builders: make(map[string]func() []*Stage),
	}

	for messageType, builder := range builders {
		f.builders[messageType] = builder
	}

	return f
}

// Register добавляет или заменяет набор стадий для типа сообщения.
func (f *Factory) Register(messageType string, builder func() []*Stage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[messageType] = builder
}

// Pipeline строит pipeline для типа сообщения.
func (f *Factory) Pipeline(messageType string) (*Pipeline, error) {
	f.mu.RLock()
	builder, ok := f.builders[messageType]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, messageType)
	}

	p, err := New(f.cfg, f.logger)
	if err != nil {
		return nil, err
	}

	for _, stage := range builder() {
		if err := p.AddStage(stage); err != nil {
			return nil, fmt.Errorf("stages for %s: %w", messageType, err)
		}
	}

	return p, nil
}
