package transform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Clearway/internal/domain"
	"github.com/shaiso/Clearway/internal/pipeline"
	"github.com/shaiso/Clearway/internal/validation"
)

// Pipeline — трансформационная специализация движка.
//
// В отличие от валидации здесь любая ошибка стадии фатальна:
// сообщение либо трансформируется целиком, либо не трансформируется
// вовсе. Частично заполненный ParsedMessage наружу не выходит.
type Pipeline struct {
	runner *pipeline.Runner
	logger *slog.Logger
}

// New создаёт пустой трансформационный pipeline.
func New(cfg pipeline.StageConfig, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	runner, err := pipeline.NewRunner("transformation", cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Pipeline{runner: runner, logger: logger}, nil
}

// AddStage регистрирует стадию трансформации.
func (p *Pipeline) AddStage(s *Stage) error {
	return p.runner.AddStage(s)
}

// RemoveStage удаляет стадию.
func (p *Pipeline) RemoveStage(stageID string) error {
	return p.runner.RemoveStage(stageID)
}

// Subscribe подписывает на метрики pipeline. Возвращает функцию отписки.
func (p *Pipeline) Subscribe(l pipeline.Listener) func() {
	return p.runner.Subscribe(l)
}

// Metrics возвращает снапшот метрик последнего запуска.
func (p *Pipeline) Metrics() pipeline.Metrics {
	return p.runner.Metrics()
}

// Transform прогоняет провалидированное сообщение через все стадии
// и возвращает полностью собранный ParsedMessage.
//
// Сообщение к этому моменту уже прошло валидацию, поэтому
// синтаксическая ошибка XML здесь — инфраструктурный сбой.
func (p *Pipeline) Transform(ctx context.Context, raw *domain.RawMessage) (*domain.ParsedMessage, error) {
	fields, err := validation.ParseFields(raw.Payload)
	if err != nil {
		return nil, fmt.Errorf("transformation pipeline: parse payload: %w", err)
	}

	st := &State{
		Raw:    raw,
		Fields: fields,
		Parsed: &domain.ParsedMessage{MessageType: raw.MessageType},
	}

	pc := pipeline.NewContext(st)
	pc.Metadata["message_type"] = raw.MessageType

	if err := p.runner.Execute(ctx, pc); err != nil {
		return nil, fmt.Errorf("transformation pipeline: %w", err)
	}

	return st.Parsed, nil
}
