package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/nrngooooo/parkingpayBE/internal/domain"
	"github.com/nrngooooo/parkingpayBE/internal/repository"
)

type pgTariffRepository struct {
	db DBTX
}

func NewPgTariffRepository(db DBTX) repository.TariffRepository {
	return &pgTariffRepository{db: db}
}

const tariffColumns = `id, free_duration_minutes, hourly_rate, is_active, created_at, updated_at`

func scanTariff(row rowScanner) (*domain.Tariff, error) {
	t := &domain.Tariff{}
	err := row.Scan(&t.ID, &t.FreeDurationMinutes, &t.HourlyRate, &t.IsActive,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.In(time.UTC)
	t.UpdatedAt = t.UpdatedAt.In(time.UTC)
	return t, nil
}

func (r *pgTariffRepository) Create(ctx context.Context, tariff *domain.Tariff) (*domain.Tariff, error) {
	query := `INSERT INTO tariffs (free_duration_minutes, hourly_rate, is_active, created_at, updated_at)
	           VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		tariff.FreeDurationMinutes, tariff.HourlyRate, tariff.IsActive,
	).Scan(&tariff.ID, &tariff.CreatedAt, &tariff.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("TariffRepository.Create: %w", err)
	}
	tariff.CreatedAt = tariff.CreatedAt.In(time.UTC)
	tariff.UpdatedAt = tariff.UpdatedAt.In(time.UTC)
	return tariff, nil
}

// FindActive yêu cầu ĐÚNG MỘT biểu phí đang kích hoạt: không chọn ngầm "dòng đầu
// tiên" khi cấu hình mơ hồ. Không có dòng nào hoặc nhiều hơn một dòng đều là lỗi.
func (r *pgTariffRepository) FindActive(ctx context.Context) (*domain.Tariff, error) {
	query := `SELECT ` + tariffColumns + ` FROM tariffs WHERE is_active = TRUE`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("TariffRepository.FindActive: %w", err)
	}
	defer rows.Close()

	var active *domain.Tariff
	for rows.Next() {
		t, err := scanTariff(rows)
		if err != nil {
			return nil, fmt.Errorf("TariffRepository.FindActive (scanning row): %w", err)
		}
		if active != nil {
			return nil, repository.ErrAmbiguousTariff
		}
		active = t
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("TariffRepository.FindActive (rows error): %w", err)
	}
	if active == nil {
		return nil, repository.ErrNoActiveTariff
	}
	return active, nil
}

func (r *pgTariffRepository) FindAll(ctx context.Context) ([]domain.Tariff, error) {
	query := `SELECT ` + tariffColumns + ` FROM tariffs ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("TariffRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var tariffs []domain.Tariff
	for rows.Next() {
		t, err := scanTariff(rows)
		if err != nil {
			return nil, fmt.Errorf("TariffRepository.FindAll (scanning row): %w", err)
		}
		tariffs = append(tariffs, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("TariffRepository.FindAll (rows error): %w", err)
	}
	return tariffs, nil
}

// Activate bật biểu phí id và tắt mọi biểu phí khác. Gọi trong RunInTx để hai
// lệnh UPDATE là một thao tác nguyên tử.
func (r *pgTariffRepository) Activate(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tariffs SET is_active = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("TariffRepository.Activate: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("TariffRepository.Activate: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE tariffs SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id <> $1 AND is_active = TRUE`, id)
	if err != nil {
		return fmt.Errorf("TariffRepository.Activate (deactivate others): %w", err)
	}
	return nil
}
