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

type pgVehicleRepository struct {
	db DBTX
}

func NewPgVehicleRepository(db DBTX) repository.VehicleRepository {
	return &pgVehicleRepository{db: db}
}

const vehicleColumns = `id, plate, entry_photo_path, plate_photo_path, is_employee_vehicle, created_at, updated_at`

func (r *pgVehicleRepository) scanVehicle(row *sql.Row) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	err := row.Scan(&v.ID, &v.Plate, &v.EntryPhotoPath, &v.PlatePhotoPath,
		&v.IsEmployeeVehicle, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.CreatedAt = v.CreatedAt.In(time.UTC)
	v.UpdatedAt = v.UpdatedAt.In(time.UTC)
	return v, nil
}

// GetOrCreate chèn xe mới; nếu biển số đã tồn tại (ON CONFLICT DO NOTHING không
// trả về row) thì đọc lại bản ghi hiện có. Hai request đồng thời cho cùng một
// biển số hội tụ về đúng một bản ghi.
func (r *pgVehicleRepository) GetOrCreate(ctx context.Context, plate string) (*domain.Vehicle, bool, error) {
	insert := `INSERT INTO vehicles (plate, created_at, updated_at)
	            VALUES ($1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	            ON CONFLICT ON CONSTRAINT vehicles_plate_key DO NOTHING
	            RETURNING ` + vehicleColumns

	v, err := r.scanVehicle(r.db.QueryRowContext(ctx, insert, plate))
	if err == nil {
		return v, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("VehicleRepository.GetOrCreate (insert): %w", err)
	}

	// Đã có xe với biển số này, đọc lại.
	v, err = r.FindByPlate(ctx, plate)
	if err != nil {
		return nil, false, fmt.Errorf("VehicleRepository.GetOrCreate (fetch): %w", err)
	}
	return v, false, nil
}

func (r *pgVehicleRepository) FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE plate = $1`
	v, err := r.scanVehicle(r.db.QueryRowContext(ctx, query, plate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.FindByPlate: %w", err)
	}
	return v, nil
}

func (r *pgVehicleRepository) FindByID(ctx context.Context, id int) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	v, err := r.scanVehicle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.FindByID: %w", err)
	}
	return v, nil
}

func (r *pgVehicleRepository) FindFirstByPlatePrefix(ctx context.Context, prefix string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles
	           WHERE plate LIKE $1 || '%' ORDER BY plate ASC LIMIT 1`
	v, err := r.scanVehicle(r.db.QueryRowContext(ctx, query, prefix))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.FindFirstByPlatePrefix: %w", err)
	}
	return v, nil
}

func (r *pgVehicleRepository) UpdateEntryPhoto(ctx context.Context, id int, path string) error {
	query := `UPDATE vehicles SET entry_photo_path = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	if err := r.execOnVehicle(ctx, query, path, id); err != nil {
		return fmt.Errorf("VehicleRepository.UpdateEntryPhoto: %w", err)
	}
	return nil
}

func (r *pgVehicleRepository) UpdatePlatePhoto(ctx context.Context, id int, path string) error {
	query := `UPDATE vehicles SET plate_photo_path = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	if err := r.execOnVehicle(ctx, query, path, id); err != nil {
		return fmt.Errorf("VehicleRepository.UpdatePlatePhoto: %w", err)
	}
	return nil
}

func (r *pgVehicleRepository) SetEmployeeFlag(ctx context.Context, id int, isEmployee bool) error {
	query := `UPDATE vehicles SET is_employee_vehicle = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	if err := r.execOnVehicle(ctx, query, isEmployee, id); err != nil {
		return fmt.Errorf("VehicleRepository.SetEmployeeFlag: %w", err)
	}
	return nil
}

func (r *pgVehicleRepository) execOnVehicle(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
