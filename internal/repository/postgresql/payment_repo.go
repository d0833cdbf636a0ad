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

type pgPaymentRepository struct {
	db DBTX
}

func NewPgPaymentRepository(db DBTX) repository.PaymentRepository {
	return &pgPaymentRepository{db: db}
}

const paymentColumns = `id, session_id, vehicle_id, amount, payment_time, duration_minutes,
	                 payment_method_id, status, kind, is_within_free_period,
	                 is_employee_vehicle, failure_reason, created_at, updated_at`

func scanPayment(row rowScanner) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := row.Scan(&p.ID, &p.SessionID, &p.VehicleID, &p.Amount, &p.PaymentTime,
		&p.DurationMinutes, &p.MethodID, &p.Status, &p.Kind,
		&p.IsWithinFreePeriod, &p.IsEmployeeVehicle, &p.FailureReason,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.PaymentTime = p.PaymentTime.In(time.UTC)
	p.CreatedAt = p.CreatedAt.In(time.UTC)
	p.UpdatedAt = p.UpdatedAt.In(time.UTC)
	return p, nil
}

func (r *pgPaymentRepository) Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	query := `INSERT INTO payments
	           (session_id, vehicle_id, amount, payment_time, duration_minutes,
	            payment_method_id, status, kind, is_within_free_period, is_employee_vehicle,
	            created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		payment.SessionID, payment.VehicleID, payment.Amount, payment.PaymentTime,
		payment.DurationMinutes, payment.MethodID, payment.Status, payment.Kind,
		payment.IsWithinFreePeriod, payment.IsEmployeeVehicle,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("PaymentRepository.Create: %w", err)
	}
	payment.PaymentTime = payment.PaymentTime.In(time.UTC)
	payment.CreatedAt = payment.CreatedAt.In(time.UTC)
	payment.UpdatedAt = payment.UpdatedAt.In(time.UTC)
	return payment, nil
}

func (r *pgPaymentRepository) FindByID(ctx context.Context, id int) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("PaymentRepository.FindByID: %w", err)
	}
	return p, nil
}

func (r *pgPaymentRepository) FindByIDForUpdate(ctx context.Context, id int) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("PaymentRepository.FindByIDForUpdate: %w", err)
	}
	return p, nil
}

func (r *pgPaymentRepository) UpdateStatus(ctx context.Context, id int, status domain.PaymentStatus, reason *string) error {
	query := `UPDATE payments SET status = $1, failure_reason = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, reason, id)
	if err != nil {
		return fmt.Errorf("PaymentRepository.UpdateStatus: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("PaymentRepository.UpdateStatus: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgPaymentRepository) ListAll(ctx context.Context) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY payment_time DESC`
	return r.list(ctx, "ListAll", query)
}

func (r *pgPaymentRepository) ListBySessionID(ctx context.Context, sessionID int) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE session_id = $1 ORDER BY payment_time DESC`
	return r.list(ctx, "ListBySessionID", query, sessionID)
}

func (r *pgPaymentRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("PaymentRepository.%s: %w", op, err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("PaymentRepository.%s (scanning row): %w", op, err)
		}
		payments = append(payments, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("PaymentRepository.%s (rows error): %w", op, err)
	}
	return payments, nil
}
