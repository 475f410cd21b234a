// internal/app/system/workers/monthahead.go
package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/scheduling"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/auditlog"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"go.uber.org/zap"
)

// Generator creates a month if it does not exist yet.
type Generator interface {
	Generate(ctx context.Context, actor auditlog.Actor, year, month0 int) (models.ScheduleMonth, error)
}

// Actor is the audit identity of generations made by the worker.
var Actor = auditlog.Actor{ID: "system", Name: "month-ahead"}

// MonthAhead is a background worker that keeps the current and the next
// month generated, so the schedule exists before anyone opens it.
type MonthAhead struct {
	gen      Generator
	log      *zap.Logger
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewMonthAhead creates the worker. It generates on Start and then every
// interval.
func NewMonthAhead(gen Generator, logger *zap.Logger, interval time.Duration) *MonthAhead {
	return &MonthAhead{
		gen:      gen,
		log:      logger,
		interval: interval,
		timeout:  30 * time.Second,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *MonthAhead) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("month-ahead worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *MonthAhead) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("month-ahead worker stopped")
}

func (w *MonthAhead) run() {
	defer w.wg.Done()

	w.tick()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *MonthAhead) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	w.RunOnce(ctx)
}

// RunOnce generates the current and the next month (UTC) where missing and
// returns how many were created. Months that already exist are left alone.
func (w *MonthAhead) RunOnce(ctx context.Context) int {
	now := w.now().UTC()
	year, month0 := now.Year(), int(now.Month())-1
	next := time.Date(year, time.Month(month0+2), 1, 0, 0, 0, 0, time.UTC)

	created := 0
	for _, ym := range [][2]int{{year, month0}, {next.Year(), int(next.Month()) - 1}} {
		m, err := w.gen.Generate(ctx, Actor, ym[0], ym[1])
		switch {
		case err == nil:
			created++
			w.log.Info("generated month ahead", zap.String("month", m.ID))
		case errors.Is(err, scheduling.ErrMonthExists):
		default:
			w.log.Error("month-ahead generation failed",
				zap.String("month", models.ScheduleKey(ym[0], ym[1])),
				zap.Error(err))
		}
	}
	return created
}
