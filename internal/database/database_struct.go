package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
)

// Database хранилище пользователей, членства, сообщений и уведомлений
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// translate превращает gorm.ErrRecordNotFound в ErrNotFound, остальные ошибки
// классифицирует вызывающий код
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, apperrors.ErrNotFound)
	}
	return err
}
