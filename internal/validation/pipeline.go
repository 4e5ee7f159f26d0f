package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/Clearway/internal/domain"
	"github.com/shaiso/Clearway/internal/pipeline"
)

// Ошибки валидационного pipeline.
var (
	// ErrUnknownMessageType — для типа сообщения не зарегистрирована схема.
	// Фатальная ошибка конфигурации, а не тихий default.
	ErrUnknownMessageType = errors.New("no validation schema registered for message type")

	// ErrUnknownRuleKind — схема ссылается на неизвестный вид правила.
	ErrUnknownRuleKind = errors.New("unknown rule kind")
)

// Pipeline — валидационная специализация движка.
//
// Привязывает generic runner к контракту валидации: стадии применяют
// правила к полям сообщения и агрегируют ValidationResult. Ошибки
// валидации — ожидаемый результат, они возвращаются структурно;
// error возвращается только при инфраструктурном сбое стадии.
type Pipeline struct {
	runner *pipeline.Runner
	logger *slog.Logger
}

// New создаёт пустой валидационный pipeline.
func New(cfg pipeline.StageConfig, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	runner, err := pipeline.NewRunner("validation", cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Pipeline{runner: runner, logger: logger}, nil
}

// AddStage регистрирует стадию валидации.
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

// Validate прогоняет сообщение через все стадии.
//
// Синтаксически некорректный XML — это невалидное сообщение
// (структурный результат), а не ошибка выполнения.
func (p *Pipeline) Validate(ctx context.Context, raw *domain.RawMessage) (domain.ValidationResult, error) {
	fields, err := ParseFields(raw.Payload)
	if err != nil {
		return domain.ValidationResult{
			Valid: false,
			Errors: []domain.ValidationError{{
				Code:     "MALFORMED_XML",
				Message:  err.Error(),
				Severity: domain.SeverityError,
			}},
		}, nil
	}

	input := &Input{
		Message: raw,
		Fields:  fields,
		Result:  domain.ValidationResult{Valid: true},
	}

	pc := pipeline.NewContext(input)
	pc.Metadata["message_type"] = raw.MessageType

	if err := p.runner.Execute(ctx, pc); err != nil {
		return domain.ValidationResult{}, fmt.Errorf("validation pipeline: %w", err)
	}

	return input.Result, nil
}
