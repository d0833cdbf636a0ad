package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nrngooooo/parkingpayBE/internal/domain"
	"github.com/nrngooooo/parkingpayBE/internal/repository"
)

type pgKioskRepository struct {
	db DBTX
}

func NewPgKioskRepository(db DBTX) repository.KioskRepository {
	return &pgKioskRepository{db: db}
}

const kioskColumns = `id, location, status, last_maintenance, managed_by, created_at, updated_at`

func scanKiosk(row rowScanner) (*domain.Kiosk, error) {
	k := &domain.Kiosk{}
	err := row.Scan(&k.ID, &k.Location, &k.Status, &k.LastMaintenance, &k.ManagedBy,
		&k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		return nil, err
	}
	k.CreatedAt = k.CreatedAt.In(time.UTC)
	k.UpdatedAt = k.UpdatedAt.In(time.UTC)
	return k, nil
}

func (r *pgKioskRepository) Create(ctx context.Context, kiosk *domain.Kiosk) (*domain.Kiosk, error) {
	query := `INSERT INTO kiosks (location, status, last_maintenance, managed_by, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		kiosk.Location, kiosk.Status, kiosk.LastMaintenance, kiosk.ManagedBy,
	).Scan(&kiosk.ID, &kiosk.CreatedAt, &kiosk.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("KioskRepository.Create: %w", err)
	}
	kiosk.CreatedAt = kiosk.CreatedAt.In(time.UTC)
	kiosk.UpdatedAt = kiosk.UpdatedAt.In(time.UTC)
	return kiosk, nil
}

func (r *pgKioskRepository) FindByID(ctx context.Context, id int) (*domain.Kiosk, error) {
	query := `SELECT ` + kioskColumns + ` FROM kiosks WHERE id = $1`
	k, err := scanKiosk(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("KioskRepository.FindByID: %w", err)
	}
	return k, nil
}

func (r *pgKioskRepository) FindAll(ctx context.Context) ([]domain.Kiosk, error) {
	query := `SELECT ` + kioskColumns + ` FROM kiosks ORDER BY location ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("KioskRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var kiosks []domain.Kiosk
	for rows.Next() {
		k, err := scanKiosk(rows)
		if err != nil {
			return nil, fmt.Errorf("KioskRepository.FindAll (scanning row): %w", err)
		}
		kiosks = append(kiosks, *k)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("KioskRepository.FindAll (rows error): %w", err)
	}
	return kiosks, nil
}

func (r *pgKioskRepository) Update(ctx context.Context, kiosk *domain.Kiosk) (*domain.Kiosk, error) {
	query := `UPDATE kiosks
	           SET location = $1, status = $2, last_maintenance = $3, managed_by = $4,
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = $5
	           RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		kiosk.Location, kiosk.Status, kiosk.LastMaintenance, kiosk.ManagedBy, kiosk.ID,
	).Scan(&kiosk.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("KioskRepository.Update: %w", err)
	}
	kiosk.UpdatedAt = kiosk.UpdatedAt.In(time.UTC)
	return kiosk, nil
}

func (r *pgKioskRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM kiosks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("KioskRepository.Delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("KioskRepository.Delete: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
