// Package repository keeps named borrower records ("fixtures") so that the
// CLI and API can score the same simulated borrower more than once.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/loanguard/internal/domain/model"
	"github.com/okian/loanguard/pkg/metrics"
)

// Store provides read/write access to named borrower records.
type Store interface {
	// Save stores rec under name, replacing any previous record.
	Save(ctx context.Context, name string, rec model.BorrowerRecord) error

	// Load returns the record stored under name.
	// Returns ErrNotFound if the name is unknown.
	Load(ctx context.Context, name string) (model.BorrowerRecord, error)

	// List returns the stored names in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases the backend.
	Close() error
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidName, name)
	}
	return nil
}

// observe records one backend call.
func observe(backend, op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.RecordStoreOperation(backend, op, result, float64(time.Since(start).Milliseconds()))
}
