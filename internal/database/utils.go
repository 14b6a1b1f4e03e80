package database

import (
	"context"

	"gorm.io/gorm"
)

// CreateEntity creates a record for the provided entity type.
func CreateEntity[T any](ctx context.Context, entity *T) error {
	conn, err := GetDB()
	if err != nil {
		return err
	}
	return conn.WithContext(ctx).Create(entity).Error
}

// WithTx runs fn within a transaction on the shared DB.
func WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	conn, err := GetDB()
	if err != nil {
		return err
	}
	return conn.WithContext(ctx).Transaction(fn)
}
