package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Base is embedded by every domain repository. It carries either the pooled
// connection or an open transaction.
type Base struct {
	conn *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB scopes the handle to ctx. A nil ctx returns the handle unchanged.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}

// WithTx rebinds to tx; nil keeps the current handle.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx != nil {
		b.conn = tx
	}
	return b
}

// TakeOne loads a single row through q. A missing row is (nil, nil) so callers
// decide which error a miss maps to.
func TakeOne[T any](q *gorm.DB) (*T, error) {
	var row T
	err := q.Take(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &row, nil
}

// Single reports whether the statement behind res touched exactly one row.
func Single(res *gorm.DB) (bool, error) {
	return res.RowsAffected == 1, res.Error
}
