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

type pgPaymentMethodRepository struct {
	db DBTX
}

func NewPgPaymentMethodRepository(db DBTX) repository.PaymentMethodRepository {
	return &pgPaymentMethodRepository{db: db}
}

const methodColumns = `id, method_name, qr_path, logo_path, created_at, updated_at`

func scanMethod(row rowScanner) (*domain.PaymentMethod, error) {
	m := &domain.PaymentMethod{}
	err := row.Scan(&m.ID, &m.MethodName, &m.QRPath, &m.LogoPath, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.In(time.UTC)
	m.UpdatedAt = m.UpdatedAt.In(time.UTC)
	return m, nil
}

func (r *pgPaymentMethodRepository) Create(ctx context.Context, method *domain.PaymentMethod) (*domain.PaymentMethod, error) {
	query := `INSERT INTO payment_methods (method_name, qr_path, logo_path, created_at, updated_at)
	           VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, method.MethodName, method.QRPath, method.LogoPath).
		Scan(&method.ID, &method.CreatedAt, &method.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("PaymentMethodRepository.Create: %w", err)
	}
	method.CreatedAt = method.CreatedAt.In(time.UTC)
	method.UpdatedAt = method.UpdatedAt.In(time.UTC)
	return method, nil
}

func (r *pgPaymentMethodRepository) FindByID(ctx context.Context, id int) (*domain.PaymentMethod, error) {
	query := `SELECT ` + methodColumns + ` FROM payment_methods WHERE id = $1`
	m, err := scanMethod(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("PaymentMethodRepository.FindByID: %w", err)
	}
	return m, nil
}

func (r *pgPaymentMethodRepository) FindAll(ctx context.Context) ([]domain.PaymentMethod, error) {
	query := `SELECT ` + methodColumns + ` FROM payment_methods ORDER BY method_name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("PaymentMethodRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var methods []domain.PaymentMethod
	for rows.Next() {
		m, err := scanMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("PaymentMethodRepository.FindAll (scanning row): %w", err)
		}
		methods = append(methods, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("PaymentMethodRepository.FindAll (rows error): %w", err)
	}
	return methods, nil
}

// UpdateAssets chỉ ghi đè trường nào có giá trị mới (qrPath/logoPath nil = giữ nguyên).
func (r *pgPaymentMethodRepository) UpdateAssets(ctx context.Context, id int, qrPath, logoPath *string) error {
	query := `UPDATE payment_methods
	           SET qr_path = COALESCE($1, qr_path),
	               logo_path = COALESCE($2, logo_path),
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, qrPath, logoPath, id)
	if err != nil {
		return fmt.Errorf("PaymentMethodRepository.UpdateAssets: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("PaymentMethodRepository.UpdateAssets: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
