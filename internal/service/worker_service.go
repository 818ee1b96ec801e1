package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartbin-backend/internal/logger"
	"smartbin-backend/internal/models"
	"smartbin-backend/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// WorkerService flags bins that stopped reporting as not working
type WorkerService struct {
	db            *gorm.DB
	binRepo       *repository.BinRepository
	notifications *NotificationService
	staleAfter    time.Duration
	interval      time.Duration
	now           func() time.Time
}

func NewWorkerService(
	db *gorm.DB,
	binRepo *repository.BinRepository,
	notifications *NotificationService,
	staleAfter, interval time.Duration,
) *WorkerService {
	return &WorkerService{
		db:            db,
		binRepo:       binRepo,
		notifications: notifications,
		staleAfter:    staleAfter,
		interval:      interval,
		now:           time.Now,
	}
}

// Enabled reports whether a stale threshold is configured
func (w *WorkerService) Enabled() bool {
	return w.staleAfter > 0 && w.interval > 0
}

// Start runs the stale bin check every interval until ctx is done
func (w *WorkerService) Start(ctx context.Context) {
	if !w.Enabled() {
		logger.Log.Info("Stale bin monitor disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Log.WithFields(logrus.Fields{
		"interval":    w.interval.String(),
		"stale_after": w.staleAfter.String(),
	}).Info("Stale bin monitor started")

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Stale bin monitor stopped")
			return
		case <-ticker.C:
			if _, err := w.MarkStaleBins(ctx); err != nil {
				logger.Log.WithError(err).Error("Stale bin check failed")
			}
		}
	}
}

// MarkStaleBins flips working bins without a recent reading to "no ok" and returns their references
func (w *WorkerService) MarkStaleBins(ctx context.Context) ([]string, error) {
	cutoff := w.now().UTC().Add(-w.staleAfter)

	var (
		refs []string
		note *models.Notification
	)
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bins := w.binRepo.WithTx(tx)

		stale, err := bins.GetStaleBins(ctx, cutoff)
		if err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}

		ids := make([]uint, len(stale))
		refs = make([]string, len(stale))
		for i, b := range stale {
			ids[i] = b.ID
			refs[i] = b.Reference
		}
		if err := bins.SetFunctionality(ctx, ids, models.FunctionalityNotOK); err != nil {
			return err
		}

		note, err = w.notifications.Record(ctx, tx, models.NotificationSystem,
			"Bins stopped reporting",
			fmt.Sprintf("No readings since %s from: %s.", cutoff.Format(time.RFC3339), strings.Join(refs, ", ")),
			TargetManager)
		return err
	})
	if err != nil {
		return nil, dbError("mark stale bins", err)
	}

	if len(refs) > 0 {
		logger.Log.WithField("bins", refs).Warn("Marked stale bins as not working")
		w.notifications.Announce(note)
	}
	return refs, nil
}
