// Package reconciler — периодическая сверка отправок с расчётной сетью.
//
// Сеть отвечает на отправку асинхронно: запись остаётся в PENDING или
// PROCESSING, пока сверка не получит итоговый статус транзакции через
// GetMessageResult. Расписание задаётся интервалом ("30s") или
// стандартным cron-выражением ("*/5 * * * *").
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shaiso/Clearway/internal/domain"
	"github.com/shaiso/Clearway/internal/protocol"
	"github.com/shaiso/Clearway/internal/telemetry"
	"github.com/shaiso/Clearway/internal/tracker"
)

// batchSize — максимум записей за один проход сверки.
const batchSize = 100

// Schedule — расписание запусков сверки.
type Schedule struct {
	interval time.Duration
	cron     cron.Schedule
}

// ParseSchedule разбирает расписание: сначала как интервал,
// затем как стандартное cron-выражение.
func ParseSchedule(spec string) (Schedule, error) {
	if d, err := time.ParseDuration(spec); err == nil {
		if d <= 0 {
			return Schedule{}, fmt.Errorf("reconcile interval must be positive, got %s", spec)
		}
		return Schedule{interval: d}, nil
	}

	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return Schedule{}, fmt.Errorf("parse reconcile schedule %q: %w", spec, err)
	}
	return Schedule{cron: sched}, nil
}

// Next возвращает время следующего запуска после t.
func (s Schedule) Next(t time.Time) time.Time {
	if s.cron != nil {
		return s.cron.Next(t)
	}
	return t.Add(s.interval)
}

// Reconciler сверяет нетерминальные отправки с сетью.
type Reconciler struct {
	tracker  *tracker.Tracker
	network  protocol.Client
	schedule Schedule
	logger   *slog.Logger
}

// New создаёт Reconciler.
func New(tr *tracker.Tracker, network protocol.Client, schedule Schedule, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		tracker:  tr,
		network:  network,
		schedule: schedule,
		logger:   logger,
	}
}

// Run выполняет сверку по расписанию до отмены контекста.
func (r *Reconciler) Run(ctx context.Context) error {
	r.logger.Info("reconciler started")

	for {
		next := r.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("reconciler stopped")
			return ctx.Err()
		case <-timer.C:
		}

		if err := r.ReconcileOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error("reconcile pass failed", "error", err)
		}
	}
}

// ReconcileOnce выполняет один проход сверки.
//
// Ошибка по отдельной записи не прерывает проход: остальные записи
// сверяются, итог агрегируется в лог.
func (r *Reconciler) ReconcileOnce(ctx context.Context) error {
	subs, err := r.tracker.ListUnsettled(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("list unsettled submissions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	var settled, failed int
	for i := range subs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		sub := &subs[i]
		if err := r.reconcile(ctx, sub); err != nil {
			failed++
			r.logger.Warn("failed to reconcile submission",
				"message_id", sub.MessageID,
				"tx_hash", sub.TransactionHash,
				"error", err)
			continue
		}
		if sub.Status.IsTerminal() || sub.Status == domain.SubmissionStatusFailed {
			settled++
		}
	}

	telemetry.ObserveReconcilePass(len(subs), settled)
	r.logger.Info("reconcile pass finished",
		"checked", len(subs), "settled", settled, "failed", failed)
	return nil
}

// reconcile сверяет одну запись.
func (r *Reconciler) reconcile(ctx context.Context, sub *domain.SubmissionRecord) error {
	result, err := r.network.GetMessageResult(ctx, sub.TransactionHash)
	if errors.Is(err, protocol.ErrTransactionNotFound) {
		// Сеть потеряла транзакцию: запись помечается FAILED,
		// дальше решает оператор через retry
		result = &protocol.MessageResult{
			TransactionHash: sub.TransactionHash,
			Status:          protocol.TxRejected,
			Reason:          "transaction not found in settlement network",
		}
	} else if err != nil {
		return err
	}

	return r.tracker.ApplyResult(ctx, sub, result)
}
