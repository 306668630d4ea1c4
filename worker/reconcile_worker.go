package worker

import (
	"context"
	"log"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"assesshub/models"
)

// ReconcileWorker periodically resets COMPLETED invitations that have
// no linked assessment result. It replaces the ad-hoc repair script
// of the previous system with a supervised loop.
type ReconcileWorker struct {
	DB       *gorm.DB
	Logger   *log.Logger
	Interval time.Duration
}

func NewReconcileWorker(db *gorm.DB, logger *log.Logger, interval time.Duration) *ReconcileWorker {
	return &ReconcileWorker{
		DB:       db,
		Logger:   logger,
		Interval: interval,
	}
}

func (rw *ReconcileWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	rw.Logger.Println("Reconcile worker started")

	ticker := time.NewTicker(rw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rw.Logger.Println("Reconcile worker shutting down...")
			return
		case <-ticker.C:
			rw.runOnce()
		}
	}
}

func (rw *ReconcileWorker) runOnce() {
	reset, err := models.ReconcileEmptyCompletions(rw.DB)
	if err != nil {
		rw.Logger.Printf("Reconciliation scan failed: %v", err)
		return
	}
	if reset > 0 {
		logrus.WithField("reset", reset).Info("reconciled empty completions")
	}
}
