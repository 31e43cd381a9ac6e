package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"lotto/lottery"
)

// WinnerPicker is the part of the lottery service the worker drives
type WinnerPicker interface {
	PickWinner(ctx context.Context, caller common.Address) (*lottery.Result, error)
}

// DrawWorker picks a winner on a cron schedule, acting as the manager
type DrawWorker struct {
	cron     *cron.Cron
	picker   WinnerPicker
	manager  common.Address
	schedule string
}

// NewDrawWorker creates a worker for a cron expression with a seconds field
func NewDrawWorker(picker WinnerPicker, manager common.Address, schedule string) *DrawWorker {
	return &DrawWorker{
		cron:     cron.New(cron.WithSeconds()),
		picker:   picker,
		manager:  manager,
		schedule: schedule,
	}
}

// Start registers the draw and starts the scheduler. The returned function
// stops the scheduler and waits for a running draw to finish.
func (w *DrawWorker) Start(ctx context.Context) (func(), error) {
	if _, err := w.cron.AddFunc(w.schedule, func() { w.RunOnce(ctx) }); err != nil {
		return nil, fmt.Errorf("failed to register draw schedule %q: %w", w.schedule, err)
	}
	w.cron.Start()

	log.WithFields(log.Fields{
		"schedule": w.schedule,
		"manager":  w.manager.Hex(),
	}).Info("Draw worker started")

	return func() {
		<-w.cron.Stop().Done()
		log.Info("Draw worker stopped")
	}, nil
}

// RunOnce performs a single draw. An empty pool is not an error.
func (w *DrawWorker) RunOnce(ctx context.Context) *lottery.Result {
	if ctx.Err() != nil {
		return nil
	}

	result, err := w.picker.PickWinner(ctx, w.manager)
	switch {
	case errors.Is(err, lottery.ErrEmptyPool):
		log.Info("Scheduled draw skipped: no entrants")
		return nil
	case err != nil:
		log.WithError(err).Error("Scheduled draw failed")
		return nil
	}

	log.WithFields(log.Fields{
		"round":    result.Round,
		"winner":   result.Winner.Hex(),
		"payout":   result.Payout.String(),
		"entrants": result.EntrantSize,
	}).Info("Scheduled draw completed")
	return result
}
