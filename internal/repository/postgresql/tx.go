package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/nrngooooo/parkingpayBE/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

// NewRepositories tạo bộ repository gắn với db (hoặc tx) cho trước.
func NewRepositories(db DBTX) repository.Repositories {
	return repository.Repositories{
		Users:          NewPgUserRepository(db),
		Vehicles:       NewPgVehicleRepository(db),
		Sessions:       NewPgParkingSessionRepository(db),
		Tariffs:        NewPgTariffRepository(db),
		Payments:       NewPgPaymentRepository(db),
		PaymentMethods: NewPgPaymentMethodRepository(db),
		Employees:      NewPgEmployeeRepository(db),
		Kiosks:         NewPgKioskRepository(db),
	}
}

type txManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) repository.Atomic {
	return &txManager{db: db}
}

// RunInTx mở một transaction, chạy fn trên bộ repository gắn với transaction đó
// và commit nếu fn không trả lỗi. Mọi lỗi (kể cả ctx bị hủy giữa chừng) đều
// rollback toàn bộ, không để lại ghi dở dang.
func (m *txManager) RunInTx(ctx context.Context, fn func(r repository.Repositories) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("lỗi mở transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Printf("Lỗi rollback transaction sau panic: %v", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(NewRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Printf("Lỗi rollback transaction: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("lỗi commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation kiểm tra lỗi vi phạm ràng buộc UNIQUE của PostgreSQL
// (driver pgx trả về *pgconn.PgError, mã 23505). Truyền constraint rỗng để
// khớp mọi ràng buộc.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	return false
}
