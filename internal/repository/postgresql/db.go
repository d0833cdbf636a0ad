package postgresql

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/nrngooooo/parkingpayBE/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed schema.sql
var schemaDDL string

// DBTX là giao diện chung của *sql.DB và *sql.Tx, cho phép cùng một repository
// chạy cả ngoài lẫn trong transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewDB(cfg *config.Config) (*sql.DB, error) {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSslMode)

	db, err := sql.Open("pgx", psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("lỗi mở kết nối database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("lỗi ping database: %w", err)
	}
	return db, nil
}

// Migrate áp schema nhúng (idempotent: toàn bộ DDL dùng IF NOT EXISTS).
// Partial unique index đảm bảo bất biến "một phiên mở cho mỗi xe" nằm ở đây.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("lỗi áp schema database: %w", err)
	}
	return nil
}
