package service

import (
	"errors"

	"go.opentelemetry.io/otel"
)

var (
	ErrIDRequired           = errors.New("id is required")
	ErrNotFound             = errors.New("record not found")
	ErrFileRequired         = errors.New("file is required: upload a file before submitting")
	ErrForeignFile          = errors.New("file path is outside the category folder")
	ErrDuplicate            = errors.New("a record with the same unique key already exists")
	ErrNotDeletable         = errors.New("records of this category cannot be deleted")
	ErrConfirmationRequired = errors.New("deletion must be confirmed")
	ErrDeletePending        = errors.New("file removed; record deletion will be completed shortly")
	ErrIdentifierRequired   = errors.New("email or NIK is required")
	// ErrDatabase wraps insert failures; the driver message follows it.
	ErrDatabase = errors.New("db save failed")
)

var tracer = otel.Tracer("sipeta/internal/service")
