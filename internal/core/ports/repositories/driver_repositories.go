package repositories

import (
	"context"

	"github.com/qorinti/ledger_backend/internal/core/domain"
)

// DriverDirectory resolves the identity fields printed on billing documents.
type DriverDirectory interface {
	// FindDriverProfile returns apperrors.ErrNotFound for unknown drivers.
	FindDriverProfile(ctx context.Context, driverID string) (*domain.DriverProfile, error)
}
