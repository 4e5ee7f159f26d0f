package transform

import (
	"context"
	"fmt"

	"github.com/shaiso/Clearway/internal/pipeline"
)

// StageFunc — шаг трансформации: читает Fields, дописывает Parsed.
type StageFunc func(ctx context.Context, st *State) error

// Stage — стадия трансформации поверх generic pipeline.
//
// Ошибки стадии помечаются KindTransformation: в отличие от валидации
// они фатальны и прерывают обработку сообщения.
type Stage struct {
	id    string
	name  string
	order int
	deps  []string
	fn    StageFunc
}

// NewStage создаёт стадию трансформации.
func NewStage(id, name string, order int, fn StageFunc, deps ...string) *Stage {
	return &Stage{id: id, name: name, order: order, deps: deps, fn: fn}
}

// ID возвращает идентификатор стадии.
func (s *Stage) ID() string { return s.id }

// Name возвращает человекочитаемое имя стадии.
func (s *Stage) Name() string { return s.name }

// Order возвращает порядок стадии среди независимых.
func (s *Stage) Order() int { return s.order }

// Dependencies возвращает ID стадий, которые должны выполниться раньше.
func (s *Stage) Dependencies() []string { return s.deps }

// Run выполняет шаг трансформации над состоянием из контекста.
func (s *Stage) Run(ctx context.Context, pc *pipeline.Context) error {
	st, ok := pc.Data.(*State)
	if !ok {
		return pipeline.WithKind(pipeline.KindTransformation, ErrBadPayload)
	}

	if err := s.fn(ctx, st); err != nil {
		return pipeline.WithKind(pipeline.KindTransformation,
			fmt.Errorf("transform %s: %w", s.id, err))
	}

	return nil
}
