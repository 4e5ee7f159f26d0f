package pipeline

import "time"

// StageStatus — статус выполнения стадии.
//
// Жизненный цикл одной последовательности попыток:
//
//	pending → running → success
//	                  ↘ (retrying → running)* → error
type StageStatus string

const (
	// StatusPending — стадия ещё не запускалась.
	StatusPending StageStatus = "pending"

	// StatusRunning — идёт попытка выполнения.
	StatusRunning StageStatus = "running"

	// StatusRetrying — попытка упала, идёт ожидание перед следующей.
	StatusRetrying StageStatus = "retrying"

	// StatusSuccess — стадия завершилась успешно. Терминальный.
	StatusSuccess StageStatus = "success"

	// StatusError — все попытки исчерпаны. Терминальный.
	StatusError StageStatus = "error"
)

// StageMetrics — метрики одной последовательности попыток стадии.
//
// Создаются заново в начале каждого выполнения; мутируются только
// executor'ом, владеющим стадией. Наружу отдаются копии-снапшоты,
// поэтому подписчики не могут повлиять на выполнение.
type StageMetrics struct {
	// StageID — стадия, к которой относятся метрики.
	StageID string `json:"stage_id"`

	// Status — текущий статус.
	Status StageStatus `json:"status"`

	// StartedAt — время первой попытки. Нулевое, если стадия pending.
	StartedAt time.Time `json:"started_at,omitzero"`

	// FinishedAt — время терминального статуса.
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// Duration — полная длительность, включая retry и backoff.
	Duration time.Duration `json:"duration"`

	// RetryAttempts — количество неудачных попыток. Обновляется после
	// каждой упавшей попытки, до возможного retry — подписчики видят
	// прогресс по ходу выполнения.
	RetryAttempts int `json:"retry_attempts"`

	// Error — текст ошибки при статусе error.
	Error string `json:"error,omitempty"`
}

// Metrics — метрики одного запуска pipeline.
//
// Принадлежат runner'у на время одного вызова Execute.
type Metrics struct {
	// ExecutionID — запуск, к которому относятся метрики.
	ExecutionID string `json:"execution_id"`

	// StartedAt — время начала запуска.
	StartedAt time.Time `json:"started_at,omitzero"`

	// FinishedAt — время завершения запуска.
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// Duration — полная длительность запуска.
	Duration time.Duration `json:"duration"`

	// Stages — метрики стадий в порядке выполнения. Стадии, до которых
	// выполнение не дошло, остаются в статусе pending.
	Stages []StageMetrics `json:"stages"`
}

// Stage возвращает метрики стадии по ID.
func (m *Metrics) Stage(stageID string) (StageMetrics, bool) {
	for _, sm := range m.Stages {
		if sm.StageID == stageID {
			return sm, true
		}
	}
	return StageMetrics{}, false
}

// snapshot возвращает копию метрик с независимым слайсом стадий.
func (m *Metrics) snapshot() Metrics {
	cp := *m
	cp.Stages = make([]StageMetrics, len(m.Stages))
	copy(cp.Stages, m.Stages)
	return cp
}
