// Package config — конфигурация через переменные окружения.
//
// Provider отдаёт сырые значения по ключу; промах — это (zero, false),
// никогда не ошибка. Типизированные хелперы поверх Provider применяют
// явные default-значения: вызывающий всегда знает, что получит.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Ключи конфигурации.
const (
	// KeyMaxRetryAttempts — потолок повторных отправок submission.
	KeyMaxRetryAttempts = "retry.max_attempts"

	// KeyReconcileSchedule — расписание сверки: интервал ("30s")
	// или cron-выражение ("*/5 * * * *").
	KeyReconcileSchedule = "reconcile.schedule"

	// KeyCacheTTL — TTL кэшированных схем валидации.
	KeyCacheTTL = "cache.ttl"

	// KeyChainPrefix — префикс ключей chain mapping: chain.<CCY> → ChainRef.
	KeyChainPrefix = "chain."
)

// Значения по умолчанию.
const (
	DefaultMaxRetryAttempts = 3
	DefaultReconcileSchedule = "30s"
	DefaultCacheTTL          = time.Hour
)

// Provider отдаёт значение конфигурации по ключу.
// Второй результат — признак наличия ключа; промах не ошибка.
type Provider interface {
	Get(key string) (string, bool)
}

// Env — Provider поверх переменных окружения.
// Ключ retry.max_attempts читается из RETRY_MAX_ATTEMPTS.
type Env struct{}

// Get реализует Provider.
func (Env) Get(key string) (string, bool) {
	name := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	v, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Static — Provider поверх фиксированной карты. Используется в тестах
// и для программной конфигурации.
type Static map[string]string

// Get реализует Provider.
func (s Static) Get(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// Int читает целочисленный ключ. Отсутствие или мусор → def.
func Int(p Provider, key string, def int) int {
	v, ok := p.Get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// Duration читает ключ-длительность. Отсутствие или мусор → def.
func Duration(p Provider, key string, def time.Duration) time.Duration {
	v, ok := p.Get(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return d
}

// String читает строковый ключ. Отсутствие → def.
func String(p Provider, key, def string) string {
	v, ok := p.Get(key)
	if !ok {
		return def
	}
	return v
}

// MaxRetryAttempts возвращает потолок повторных отправок.
func MaxRetryAttempts(p Provider) int {
	return Int(p, KeyMaxRetryAttempts, DefaultMaxRetryAttempts)
}

// CacheTTL возвращает TTL кэшированных схем.
func CacheTTL(p Provider) time.Duration {
	return Duration(p, KeyCacheTTL, DefaultCacheTTL)
}

// ReconcileSchedule возвращает расписание сверки как есть:
// интервал или cron-выражение разбирает reconciler.
func ReconcileSchedule(p Provider) string {
	return String(p, KeyReconcileSchedule, DefaultReconcileSchedule)
}

// ChainRef возвращает расчётную сеть для валюты из chain mapping.
// Отсутствие маппинга — осознанное (zero, false): молчаливый default
// отправил бы платёж не в ту сеть.
func ChainRef(p Provider, currency string) (string, bool) {
	return p.Get(KeyChainPrefix + strings.ToUpper(currency))
}
