package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// ParkingSession đại diện cho một lượt đỗ xe: mở khi xe vào, đóng khi xe ra.
// Bất biến: mỗi xe chỉ có tối đa MỘT phiên chưa đóng (exit_time IS NULL) tại mọi thời điểm,
// được đảm bảo bằng partial unique index ở tầng DB chứ không phải check ở tầng ứng dụng.
type ParkingSession struct {
	ID              int         `json:"id"`
	VehicleID       int         `json:"vehicle_id"`
	EntryTime       time.Time   `json:"entry_time"`
	ExitTime        null.Time   `json:"exit_time"`
	ExitPhotoPath   null.String `json:"exit_photo_path,omitempty"`
	DurationMinutes null.Int    `json:"duration_minutes"`
	PaidStatus      bool        `json:"paid_status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	Vehicle *Vehicle `json:"vehicle,omitempty"` // Không map vào DB, dùng để trả về API
}

// IsOpen báo phiên còn đang mở hay không.
func (s *ParkingSession) IsOpen() bool {
	return !s.ExitTime.Valid
}

// DTO cho API đóng phiên (xe ra cổng).
type CloseSessionDTO struct {
	ExitPhotoBase64 string `json:"exit_photo_base64,omitempty"`
}

// Kết quả của thao tác ghi nhận xe vào: xe + phiên mới mở.
// Warnings chứa các lỗi phụ không chặn thao tác (ví dụ: lưu ảnh thất bại).
type EntryResult struct {
	Vehicle  *Vehicle        `json:"vehicle"`
	Session  *ParkingSession `json:"session"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Kết quả của thao tác đóng phiên.
type CloseResult struct {
	Session  *ParkingSession `json:"session"`
	Warnings []string        `json:"warnings,omitempty"`
}
