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

type pgParkingSessionRepository struct {
	db DBTX
}

func NewPgParkingSessionRepository(db DBTX) repository.ParkingSessionRepository {
	return &pgParkingSessionRepository{db: db}
}

const sessionColumns = `id, vehicle_id, entry_time, exit_time, exit_photo_path,
	                 duration_minutes, paid_status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.ParkingSession, error) {
	s := &domain.ParkingSession{}
	err := row.Scan(&s.ID, &s.VehicleID, &s.EntryTime, &s.ExitTime, &s.ExitPhotoPath,
		&s.DurationMinutes, &s.PaidStatus, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.EntryTime = s.EntryTime.In(time.UTC)
	if s.ExitTime.Valid {
		s.ExitTime.Time = s.ExitTime.Time.In(time.UTC)
	}
	s.CreatedAt = s.CreatedAt.In(time.UTC)
	s.UpdatedAt = s.UpdatedAt.In(time.UTC)
	return s, nil
}

// Create chèn phiên mới đang mở. Partial unique index
// parking_sessions_vehicle_open_key chặn xe đã có phiên mở: vi phạm trả về
// ErrSessionAlreadyOpen, không cần check-rồi-insert ở tầng ứng dụng.
func (r *pgParkingSessionRepository) Create(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error) {
	query := `INSERT INTO parking_sessions (vehicle_id, entry_time, created_at, updated_at)
	           VALUES ($1, $2, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, paid_status, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, session.VehicleID, session.EntryTime).
		Scan(&session.ID, &session.PaidStatus, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "parking_sessions_vehicle_open_key") {
			return nil, fmt.Errorf("%w: vehicle_id=%d", repository.ErrSessionAlreadyOpen, session.VehicleID)
		}
		if isUniqueViolation(err, "") {
			return nil, fmt.Errorf("%w: %v", repository.ErrStorageConflict, err)
		}
		return nil, fmt.Errorf("ParkingSessionRepository.Create: %w", err)
	}
	session.EntryTime = session.EntryTime.In(time.UTC)
	session.CreatedAt = session.CreatedAt.In(time.UTC)
	session.UpdatedAt = session.UpdatedAt.In(time.UTC)
	return session, nil
}

func (r *pgParkingSessionRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE id = $1`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSessionRepository.FindByID: %w", err)
	}
	return s, nil
}

func (r *pgParkingSessionRepository) FindByIDForUpdate(ctx context.Context, id int) (*domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE id = $1 FOR UPDATE`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSessionRepository.FindByIDForUpdate: %w", err)
	}
	return s, nil
}

func (r *pgParkingSessionRepository) FindActiveByVehicleID(ctx context.Context, vehicleID int) (*domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions
	           WHERE vehicle_id = $1 AND exit_time IS NULL
	           ORDER BY entry_time DESC LIMIT 1`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, vehicleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoActiveSession
		}
		return nil, fmt.Errorf("ParkingSessionRepository.FindActiveByVehicleID: %w", err)
	}
	return s, nil
}

// Close chỉ cập nhật phiên còn đang mở (exit_time IS NULL trong điều kiện WHERE).
// Phiên đã đóng không khớp điều kiện và trả về ErrNotFound cho tầng service phân xử.
func (r *pgParkingSessionRepository) Close(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error) {
	query := `UPDATE parking_sessions
	           SET exit_time = $1, exit_photo_path = $2, duration_minutes = $3,
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = $4 AND exit_time IS NULL
	           RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		session.ExitTime, session.ExitPhotoPath, session.DurationMinutes, session.ID,
	).Scan(&session.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSessionRepository.Close: %w", err)
	}
	session.UpdatedAt = session.UpdatedAt.In(time.UTC)
	return session, nil
}

func (r *pgParkingSessionRepository) SetPaidStatus(ctx context.Context, id int, paid bool) error {
	query := `UPDATE parking_sessions SET paid_status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, paid, id)
	if err != nil {
		return fmt.Errorf("ParkingSessionRepository.SetPaidStatus: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSessionRepository.SetPaidStatus: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingSessionRepository) ListOpen(ctx context.Context) ([]domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions
	           WHERE exit_time IS NULL ORDER BY entry_time DESC`
	return r.list(ctx, "ListOpen", query)
}

func (r *pgParkingSessionRepository) ListByVehicleID(ctx context.Context, vehicleID int) ([]domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions
	           WHERE vehicle_id = $1 ORDER BY entry_time DESC`
	return r.list(ctx, "ListByVehicleID", query, vehicleID)
}

func (r *pgParkingSessionRepository) ListAll(ctx context.Context) ([]domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions ORDER BY entry_time DESC`
	return r.list(ctx, "ListAll", query)
}

func (r *pgParkingSessionRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.ParkingSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.%s: %w", op, err)
	}
	defer rows.Close()

	var sessions []domain.ParkingSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("ParkingSessionRepository.%s (scanning row): %w", op, err)
		}
		sessions = append(sessions, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.%s (rows error): %w", op, err)
	}
	return sessions, nil
}
