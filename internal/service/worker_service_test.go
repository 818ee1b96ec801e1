package service

import (
	"context"
	"testing"
	"time"

	"smartbin-backend/internal/models"
)

func TestMarkStaleBins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	future := time.Now().UTC().Add(48 * time.Hour)

	env.createBin(t, "QUIET", models.BinTypeFillLevel)
	env.createBin(t, "ACTIVE", models.BinTypeFillLevel)
	broken := env.createBin(t, "BROKEN", models.BinTypeFillLevel)
	if err := env.db.Model(broken).Update("functionality", models.FunctionalityNotOK).Error; err != nil {
		t.Fatalf("update: %v", err)
	}
	recent := models.BinReading{Reference: "ACTIVE", FillLevel: 10, Timestamp: future.Add(-30 * time.Minute)}
	if err := env.db.Create(&recent).Error; err != nil {
		t.Fatalf("create reading: %v", err)
	}

	w := NewWorkerService(env.db, env.bins, env.notifications, time.Hour, time.Minute)
	w.now = func() time.Time { return future }

	refs, err := w.MarkStaleBins(ctx)
	if err != nil {
		t.Fatalf("mark stale: %v", err)
	}
	if len(refs) != 1 || refs[0] != "QUIET" {
		t.Fatalf("expected [QUIET] got %v", refs)
	}

	bin, err := env.bins.GetBinByReference(ctx, "QUIET")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if bin.Functionality != models.FunctionalityNotOK {
		t.Fatalf("expected no ok got %q", bin.Functionality)
	}
	if n := env.count(t, &models.Notification{}); n != 1 {
		t.Fatalf("expected 1 notification got %d", n)
	}

	refs, err = w.MarkStaleBins(ctx)
	if err != nil {
		t.Fatalf("mark stale: %v", err)
	}
	if len(refs) != 0 {
		t.Fatalf("expected nothing left to mark got %v", refs)
	}
}

func TestWorkerDisabled(t *testing.T) {
	w := NewWorkerService(nil, nil, nil, 0, time.Minute)
	if w.Enabled() {
		t.Fatal("expected worker disabled without a stale threshold")
	}
	// returns immediately when disabled
	w.Start(context.Background())
}
