package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qorinti/ledger_backend/internal/apperrors"
	"github.com/qorinti/ledger_backend/internal/core/domain"
	portsrepo "github.com/qorinti/ledger_backend/internal/core/ports/repositories"
	"github.com/qorinti/ledger_backend/internal/models"
	"github.com/qorinti/ledger_backend/internal/utils/mapping"
)

// PgxDriverDirectory reads driver identity fields, falling back through the linked user.
type PgxDriverDirectory struct {
	BaseRepository
}

func newPgxDriverDirectory(pool *pgxpool.Pool) *PgxDriverDirectory {
	return &PgxDriverDirectory{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.DriverDirectory = (*PgxDriverDirectory)(nil)

// FindDriverProfile retrieves the naming and tax fields of a driver.
func (r *PgxDriverDirectory) FindDriverProfile(ctx context.Context, driverID string) (*domain.DriverProfile, error) {
	query := `
		SELECT d.driver_id, d.display_name, d.full_name, d.first_name, d.last_name,
		       d.tax_id, d.national_id, u.display_name, u.full_name
		FROM drivers d
		LEFT JOIN users u ON u.user_id = d.user_id
		WHERE d.driver_id = $1;
	`
	var m models.DriverProfile
	err := r.Pool.QueryRow(ctx, query, driverID).Scan(
		&m.DriverID,
		&m.DisplayName,
		&m.FullName,
		&m.FirstName,
		&m.LastName,
		&m.TaxID,
		&m.NationalID,
		&m.UserDisplayName,
		&m.UserFullName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Storage("failed to find driver "+driverID, err)
	}
	d := mapping.ToDomainDriverProfile(m)
	return &d, nil
}
