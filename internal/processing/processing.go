// Package processing — пайплайн отправки разобранного сообщения
// в расчётную сеть.
//
// Стадии: details извлекает сводку полей, chain разрешает расчётную
// сеть по валюте из chain mapping, submit выполняет сетевой вызов.
// Сетевой вызов — единственная стадия с собственной конфигурацией
// retry/timeout: локальные стадии детерминированы и повторов
// не требуют.
package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/Clearway/internal/config"
	"github.com/shaiso/Clearway/internal/domain"
	"github.com/shaiso/Clearway/internal/extract"
	"github.com/shaiso/Clearway/internal/pipeline"
	"github.com/shaiso/Clearway/internal/protocol"
)

// Ошибки пайплайна обработки.
var (
	// ErrNoChainMapping — для валюты не настроена расчётная сеть.
	// Молчаливый default отправил бы платёж не в ту сеть.
	ErrNoChainMapping = errors.New("no chain mapping for currency")

	// ErrBadPayload — контекст запуска несёт не *State.
	ErrBadPayload = errors.New("pipeline context does not carry processing state")
)

// State — состояние обработки одного сообщения.
type State struct {
	// Parsed — разобранное сообщение.
	Parsed *domain.ParsedMessage

	// Details — сводка полей для сети. Заполняет стадия details.
	Details domain.MessageDetails

	// PriorTxHash — хэш прежней транзакции при повторной отправке.
	PriorTxHash string

	// Response — ответ сети. Заполняет стадия submit.
	Response *domain.TransactionResponse
}

// Config — конфигурация пайплайна обработки.
type Config struct {
	// Stage — конфигурация локальных стадий.
	Stage pipeline.StageConfig

	// Submit — конфигурация сетевой стадии: здесь retry и timeout
	// действительно работают.
	Submit pipeline.StageConfig
}

// Pipeline — пайплайн обработки поверх generic движка.
type Pipeline struct {
	runner *pipeline.Runner
	logger *slog.Logger
}

// New собирает пайплайн обработки.
func New(cfg Config, registry *extract.Registry, provider config.Provider, client protocol.Client, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	runner, err := pipeline.NewRunner("processing", cfg.Stage, logger)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{runner: runner, logger: logger}

	stages := []pipeline.Stage{
		&stage{id: "details", name: "Extract message details", order: 1, fn: detailsStage(registry)},
		&stage{id: "chain", name: "Resolve settlement chain", order: 2, deps: []string{"details"}, fn: chainStage(provider)},
		&configuredStage{
			stage: stage{id: "submit", name: "Submit to settlement network", order: 3, deps: []string{"chain"}, fn: submitStage(client)},
			cfg:   cfg.Submit,
		},
	}

	for _, s := range stages {
		if err := runner.AddStage(s); err != nil {
			return nil, fmt.Errorf("processing pipeline: %w", err)
		}
	}

	return p, nil
}

// Subscribe подписывает на метрики pipeline. Возвращает функцию отписки.
func (p *Pipeline) Subscribe(l pipeline.Listener) func() {
	return p.runner.Subscribe(l)
}

// Metrics возвращает снапшот метрик последнего запуска.
func (p *Pipeline) Metrics() pipeline.Metrics {
	return p.runner.Metrics()
}

// Process отправляет сообщение в сеть и возвращает ответ сети.
// priorTxHash не пуст при повторной отправке после неудачи.
func (p *Pipeline) Process(ctx context.Context, parsed *domain.ParsedMessage, priorTxHash string) (*domain.TransactionResponse, error) {
	st := &State{Parsed: parsed, PriorTxHash: priorTxHash}

	pc := pipeline.NewContext(st)
	pc.Metadata["message_id"] = parsed.MessageID
	pc.Metadata["message_type"] = parsed.MessageType

	if err := p.runner.Execute(ctx, pc); err != nil {
		return nil, fmt.Errorf("processing pipeline: %w", err)
	}

	return st.Response, nil
}

// detailsStage извлекает сводку полей через реестр экстракторов.
func detailsStage(registry *extract.Registry) func(context.Context, *State) error {
	return func(_ context.Context, st *State) error {
		extractor, err := registry.For(st.Parsed.MessageType)
		if err != nil {
			return err
		}

		details, err := extractor.ExtractDetails(st.Parsed)
		if err != nil {
			return err
		}

		st.Details = details
		return nil
	}
}

// chainStage разрешает расчётную сеть по валюте сообщения.
func chainStage(provider config.Provider) func(context.Context, *State) error {
	return func(_ context.Context, st *State) error {
		ref, ok := config.ChainRef(provider, st.Parsed.Currency)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoChainMapping, st.Parsed.Currency)
		}

		st.Parsed.ChainRef = ref
		return nil
	}
}

// submitStage выполняет сетевой вызов. Ошибки помечаются
// KindSubmission.
func submitStage(client protocol.Client) func(context.Context, *State) error {
	return func(ctx context.Context, st *State) error {
		req := protocol.SubmitRequest{
			MessageID:   st.Parsed.MessageID,
			ChainRef:    st.Parsed.ChainRef,
			Details:     st.Details,
			PriorTxHash: st.PriorTxHash,
		}

		var (
			tx  *domain.TransactionResponse
			err error
		)
		if st.PriorTxHash != "" {
			tx, err = client.RetryMessage(ctx, req)
		} else {
			tx, err = client.SubmitMessage(ctx, req)
		}
		if err != nil {
			return pipeline.WithKind(pipeline.KindSubmission, err)
		}

		st.Response = tx
		return nil
	}
}

// stage — стадия обработки с функцией-телом.
type stage struct {
	id    string
	name  string
	order int
	deps  []string
	fn    func(context.Context, *State) error
}

func (s *stage) ID() string             { return s.id }
func (s *stage) Name() string           { return s.name }
func (s *stage) Order() int             { return s.order }
func (s *stage) Dependencies() []string { return s.deps }

func (s *stage) Run(ctx context.Context, pc *pipeline.Context) error {
	st, ok := pc.Data.(*State)
	if !ok {
		return ErrBadPayload
	}
	return s.fn(ctx, st)
}

// configuredStage — стадия с собственной конфигурацией executor'а.
type configuredStage struct {
	stage
	cfg pipeline.StageConfig
}

// Config реализует pipeline.Configurable.
func (s *configuredStage) Config() pipeline.StageConfig { return s.cfg }
