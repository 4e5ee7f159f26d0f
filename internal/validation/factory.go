package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Clearway/internal/cache"
	"github.com/shaiso/Clearway/internal/pipeline"
)

// TTL кэшированных схем.
const defaultSchemaTTL = time.Hour

// Factory строит валидационный pipeline под тип сообщения.
//
// Схемы разрешаются в порядке: кэш (schema:<messageType>) → встроенный
// реестр. Промах в обоих — фатальная ошибка конфигурации, а не тихий
// default. Реестр заполняется при старте и может быть дополнен
// через Register.
type Factory struct {
	cache  cache.Provider
	ttl    time.Duration
	cfg    pipeline.StageConfig
	logger *slog.Logger

	mu      sync.RWMutex
	schemas map[string]SchemaDef
	// extraRules — кросс-полевые и custom-правила, регистрируемые кодом:
	// messageType → stageID → правила.
	extraRules map[string]map[string][]Rule
}

// NewFactory создаёт фабрику со встроенными схемами.
func NewFactory(cacheProvider cache.Provider, cfg pipeline.StageConfig, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}

	f := &Factory{
		cache:      cacheProvider,
		ttl:        defaultSchemaTTL,
		cfg:        cfg,
		logger:     logger,
		schemas:    make(map[string]SchemaDef),
		extraRules: make(map[string]map[string][]Rule),
	}

	for _, schema := range BuiltinSchemas() {
		f.schemas[schema.MessageType] = schema
	}

	return f
}

// Register добавляет или заменяет схему в реестре.
func (f *Factory) Register(schema SchemaDef) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schemas[schema.MessageType] = schema
}

// RegisterRule добавляет кодовое правило (cross-field, custom) к стадии
// указанного типа сообщения. JSON-схема такие правила выразить не может.
func (f *Factory) RegisterRule(messageType, stageID string, rule Rule) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.extraRules[messageType] == nil {
		f.extraRules[messageType] = make(map[string][]Rule)
	}
	f.extraRules[messageType][stageID] = append(f.extraRules[messageType][stageID], rule)
}

// Pipeline строит pipeline для типа сообщения.
func (f *Factory) Pipeline(ctx context.Context, messageType string) (*Pipeline, error) {
	schema, err := f.resolveSchema(ctx, messageType)
	if err != nil {
		return nil, err
	}

	p, err := New(f.cfg, f.logger)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	extra := f.extraRules[messageType]
	f.mu.RUnlock()

	for _, stageDef := range schema.Stages {
		stage := NewStage(stageDef.ID, stageDef.Name, stageDef.Order, stageDef.DependsOn...)

		for _, ruleDef := range stageDef.Rules {
			rule, err := ruleDef.build()
			if err != nil {
				return nil, fmt.Errorf("schema %s, stage %s: %w", messageType, stageDef.ID, err)
			}
			stage.AddRule(rule)
		}

		for _, rule := range extra[stageDef.ID] {
			stage.AddRule(rule)
		}

		if err := p.AddStage(stage); err != nil {
			return nil, fmt.Errorf("schema %s: %w", messageType, err)
		}
	}

	return p, nil
}

// resolveSchema ищет схему в кэше, затем во встроенном реестре.
// Найденная в реестре схема прогревает кэш.
func (f *Factory) resolveSchema(ctx context.Context, messageType string) (SchemaDef, error) {
	if f.cache != nil {
		data, ok, err := f.cache.Get(ctx, cache.SchemaKey(messageType))
		if err != nil {
			// Недоступный кэш не блокирует валидацию
			f.logger.Warn("schema cache unavailable", "message_type", messageType, "error", err)
		} else if ok {
			var schema SchemaDef
			if err := json.Unmarshal(data, &schema); err != nil {
				f.logger.Warn("cached schema is corrupt, falling back to registry",
					"message_type", messageType, "error", err)
			} else {
				return schema, nil
			}
		}
	}

	f.mu.RLock()
	schema, ok := f.schemas[messageType]
	f.mu.RUnlock()

	if !ok {
		return SchemaDef{}, fmt.Errorf("%w: %s", ErrUnknownMessageType, messageType)
	}

	if f.cache != nil {
		if data, err := json.Marshal(schema); err == nil {
			if err := f.cache.Set(ctx, cache.SchemaKey(messageType), data, f.ttl); err != nil {
				f.logger.Warn("failed to cache schema", "message_type", messageType, "error", err)
			}
		}
	}

	return schema, nil
}
