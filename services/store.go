package services

import (
	"context"
	"errors"
	"sync"

	"hunter-season-system/apperr"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const tracerName = "hunter-season-system/services"

// Store serializes every mutation behind one writer lock and runs it in a single
// transaction, so a failing ledger call rolls back the whole operation.
// Reads share the lock and see one consistent snapshot.
type Store struct {
	DB *gorm.DB

	mu     sync.RWMutex
	tracer trace.Tracer
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db, tracer: otel.Tracer(tracerName)}
}

// Write runs fn as one atomic state transition.
func (s *Store) Write(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("store.mode", "write")))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.DB.WithContext(ctx).Transaction(fn)
	recordSpanError(span, err)
	return err
}

// Read runs fn against a read snapshot. fn must only use tx.
func (s *Store) Read(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("store.mode", "read")))
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	err := s.DB.WithContext(ctx).Transaction(fn)
	recordSpanError(span, err)
	return err
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	code := apperr.CodeOf(err)
	span.SetAttributes(attribute.String("app.error_code", string(code)))
	span.RecordError(err)
	span.SetStatus(codes.Error, string(code))
}

// nextID allocates the next monotonic id (starting at 1) for models keyed by "id".
// Callers hold the writer lock.
func nextID(tx *gorm.DB, model any) (uint64, error) {
	var maxID uint64
	if err := tx.Model(model).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return 0, err
	}
	return maxID + 1, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
