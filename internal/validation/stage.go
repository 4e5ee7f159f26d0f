package validation

import (
	"context"
	"fmt"
	"sync"

	"github.com/shaiso/Clearway/internal/domain"
	"github.com/shaiso/Clearway/internal/pipeline"
)

// Input — данные запуска валидационного pipeline.
// Живёт в pipeline.Context.Data, принадлежит одному запуску.
type Input struct {
	// Message — исходное сообщение.
	Message *domain.RawMessage

	// Fields — разобранные поля XML.
	Fields Fields

	// Result — агрегированный результат. Стадии дописывают свои ошибки.
	Result domain.ValidationResult
}

// Stage — стадия валидации: группа правил уровня поля.
//
// Правила регистрируются мутабельно через AddRule — стадия
// конфигурируется набором правил без подклассов. Ошибки валидации
// дописываются в результат и не прерывают pipeline: это ожидаемый
// бизнес-исход, а не сбой стадии.
type Stage struct {
	id    string
	name  string
	order int
	deps  []string

	mu    sync.Mutex
	rules []Rule
}

// NewStage создаёт стадию валидации.
func NewStage(id, name string, order int, deps ...string) *Stage {
	return &Stage{
		id:    id,
		name:  name,
		order: order,
		deps:  deps,
	}
}

// AddRule добавляет правило в стадию.
func (s *Stage) AddRule(r Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
}

// Rules возвращает копию списка правил.
func (s *Stage) Rules() []Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	rules := make([]Rule, len(s.rules))
	copy(rules, s.rules)
	return rules
}

// ID реализует pipeline.Stage.
func (s *Stage) ID() string { return s.id }

// Name реализует pipeline.Stage.
func (s *Stage) Name() string { return s.name }

// Order реализует pipeline.Stage.
func (s *Stage) Order() int { return s.order }

// Dependencies реализует pipeline.Stage.
func (s *Stage) Dependencies() []string { return s.deps }

// Run применяет правила стадии к полям сообщения.
func (s *Stage) Run(ctx context.Context, pc *pipeline.Context) error {
	input, ok := pc.Data.(*Input)
	if !ok {
		return fmt.Errorf("validation stage %s: unexpected context data %T", s.id, pc.Data)
	}

	for _, rule := range s.Rules() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for _, violation := range rule.Check(input.Fields) {
			input.Result.Errors = append(input.Result.Errors, violation)
			if violation.Severity == domain.SeverityError {
				input.Result.Valid = false
			}
		}
	}

	return nil
}
