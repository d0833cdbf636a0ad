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

type pgEmployeeRepository struct {
	db DBTX
}

func NewPgEmployeeRepository(db DBTX) repository.EmployeeRepository {
	return &pgEmployeeRepository{db: db}
}

const employeeColumns = `id, name, position, department, vehicle_id, created_at, updated_at`

func scanEmployee(row rowScanner) (*domain.Employee, error) {
	e := &domain.Employee{}
	err := row.Scan(&e.ID, &e.Name, &e.Position, &e.Department, &e.VehicleID,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.CreatedAt = e.CreatedAt.In(time.UTC)
	e.UpdatedAt = e.UpdatedAt.In(time.UTC)
	return e, nil
}

func (r *pgEmployeeRepository) Create(ctx context.Context, employee *domain.Employee) (*domain.Employee, error) {
	query := `INSERT INTO employees (name, position, department, vehicle_id, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		employee.Name, employee.Position, employee.Department, employee.VehicleID,
	).Scan(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "employees_vehicle_id_key") {
			return nil, fmt.Errorf("%w: xe đã được gán cho nhân viên khác", repository.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("EmployeeRepository.Create: %w", err)
	}
	employee.CreatedAt = employee.CreatedAt.In(time.UTC)
	employee.UpdatedAt = employee.UpdatedAt.In(time.UTC)
	return employee, nil
}

func (r *pgEmployeeRepository) FindByID(ctx context.Context, id int) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	e, err := scanEmployee(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("EmployeeRepository.FindByID: %w", err)
	}
	return e, nil
}

func (r *pgEmployeeRepository) FindByVehicleID(ctx context.Context, vehicleID int) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE vehicle_id = $1`
	e, err := scanEmployee(r.db.QueryRowContext(ctx, query, vehicleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("EmployeeRepository.FindByVehicleID: %w", err)
	}
	return e, nil
}

func (r *pgEmployeeRepository) FindAll(ctx context.Context) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("EmployeeRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var employees []domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("EmployeeRepository.FindAll (scanning row): %w", err)
		}
		employees = append(employees, *e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("EmployeeRepository.FindAll (rows error): %w", err)
	}
	return employees, nil
}

func (r *pgEmployeeRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("EmployeeRepository.Delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("EmployeeRepository.Delete: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
