package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DefaultStatementTimeout bounds a single statement when no timeout is configured
const DefaultStatementTimeout = 5 * time.Second

// base carries the handle and statement timeout shared by every repository.
// db is either the pool or a transaction handle.
type base struct {
	db      *gorm.DB
	timeout time.Duration
}

func newBase(db *gorm.DB, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = DefaultStatementTimeout
	}
	return base{db: db, timeout: timeout}
}

// session returns a handle bound to ctx and limited by the statement timeout
func (b base) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return b.db.WithContext(ctx), cancel
}

func (b base) withTx(tx *gorm.DB) base {
	return base{db: tx, timeout: b.timeout}
}
