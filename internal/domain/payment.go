package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"
)

// Tariff là biểu phí: miễn phí free_duration_minutes phút đầu, sau đó tính theo giờ.
// Chỉ được phép có đúng MỘT biểu phí đang kích hoạt (is_active = true).
type Tariff struct {
	ID                  int             `json:"id"`
	FreeDurationMinutes int64           `json:"free_duration_minutes"`
	HourlyRate          decimal.Decimal `json:"hourly_rate"`
	IsActive            bool            `json:"is_active"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type TariffDTO struct {
	FreeDurationMinutes int64  `json:"free_duration_minutes" binding:"min=0"`
	HourlyRate          string `json:"hourly_rate" binding:"required"`
	IsActive            bool   `json:"is_active"`
}

// PaymentMethod là dữ liệu tham chiếu (tên + ảnh QR/logo), không bị core thay đổi.
type PaymentMethod struct {
	ID         int         `json:"id"`
	MethodName string      `json:"method_name"`
	QRPath     null.String `json:"qr_path,omitempty"`
	LogoPath   null.String `json:"logo_path,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type PaymentMethodDTO struct {
	MethodName string `json:"method_name" binding:"required,max=50"`
	QRBase64   string `json:"qr_base64,omitempty"`
	LogoBase64 string `json:"logo_base64,omitempty"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentKind phân biệt thanh toán quyết toán cho phiên đã đóng (settlement)
// với thanh toán thủ công/tạm ứng do nhân viên nhập (advance). Không trộn lẫn hai loại.
type PaymentKind string

const (
	PaymentSettlement PaymentKind = "settlement"
	PaymentAdvance    PaymentKind = "advance"
)

// Payment là một bản ghi thanh toán cho một phiên đỗ xe.
// Hai cờ IsWithinFreePeriod / IsEmployeeVehicle được chụp lại TẠI THỜI ĐIỂM tính phí
// để phục vụ đối soát: thay đổi biểu phí sau này không làm sai lệch ý nghĩa lịch sử.
type Payment struct {
	ID                 int             `json:"id"`
	SessionID          int             `json:"session_id"`
	VehicleID          int             `json:"vehicle_id"`
	Amount             decimal.Decimal `json:"amount"`
	PaymentTime        time.Time       `json:"payment_time"`
	DurationMinutes    int64           `json:"duration_minutes"`
	MethodID           null.Int        `json:"payment_method_id"`
	Status             PaymentStatus   `json:"status"`
	Kind               PaymentKind     `json:"kind"`
	IsWithinFreePeriod bool            `json:"is_within_free_period"`
	IsEmployeeVehicle  bool            `json:"is_employee_vehicle"`
	FailureReason      null.String     `json:"failure_reason,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// DTO cho API tính phí và tạo thanh toán cho một phiên đã đóng.
type BillSessionDTO struct {
	PaymentMethodID int `json:"payment_method_id" binding:"required"`
}

// DTO cho API ghi nhận thanh toán thủ công (nhân viên nhập tay).
type ManualPaymentDTO struct {
	Plate           string `json:"plate" binding:"required"`
	DurationMinutes int64  `json:"duration_minutes" binding:"min=0"`
	Amount          string `json:"amount" binding:"required"`
	PaymentTime     string `json:"payment_time,omitempty"` // RFC3339, mặc định thời gian hiện tại
	PaymentMethodID int    `json:"payment_method_id" binding:"required"`
}

type MarkPaymentFailedDTO struct {
	Reason string `json:"reason" binding:"required"`
}
