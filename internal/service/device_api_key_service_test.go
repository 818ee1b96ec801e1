package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"smartbin-backend/internal/repository"
)

func TestDeviceAPIKeyLifecycle(t *testing.T) {
	env := newTestEnv(t)
	svc := NewDeviceAPIKeyService(repository.NewDeviceAPIKeyRepo(env.db, 0))
	ctx := context.Background()

	created, err := svc.GenerateAPIKey(ctx, " bin gateway ", 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(created.APIKey, created.Prefix+".") {
		t.Fatalf("expected key to start with its prefix got %q", created.APIKey)
	}
	if created.Description != "bin gateway" {
		t.Fatalf("expected trimmed description got %q", created.Description)
	}

	key, err := svc.ValidateAPIKey(ctx, created.APIKey)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if key.ID != created.ID {
		t.Fatalf("expected key %d got %d", created.ID, key.ID)
	}

	if _, err := svc.ValidateAPIKey(ctx, created.Prefix+".wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized got %v", err)
	}
	if _, err := svc.ValidateAPIKey(ctx, "no-separator"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized got %v", err)
	}

	if err := svc.RevokeAPIKey(ctx, created.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.ValidateAPIKey(ctx, created.APIKey); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after revoke got %v", err)
	}
	if err := svc.RevokeAPIKey(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestDeviceAPIKeyExpiry(t *testing.T) {
	env := newTestEnv(t)
	svc := NewDeviceAPIKeyService(repository.NewDeviceAPIKeyRepo(env.db, 0))
	ctx := context.Background()

	created, err := svc.GenerateAPIKey(ctx, "short lived", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.ValidateAPIKey(ctx, created.APIKey); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired key got %v", err)
	}
	if _, err := svc.GenerateAPIKey(ctx, "bad", -time.Second); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
}
