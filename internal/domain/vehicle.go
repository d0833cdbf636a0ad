package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type Vehicle struct {
	ID                int         `json:"id"`
	Plate             string      `json:"plate"` // Biển số đã chuẩn hóa, duy nhất
	EntryPhotoPath    null.String `json:"entry_photo_path,omitempty"`
	PlatePhotoPath    null.String `json:"plate_photo_path,omitempty"` // Ảnh vùng biển số đã cắt
	IsEmployeeVehicle bool        `json:"is_employee_vehicle"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`

	Sessions []ParkingSession `json:"sessions,omitempty"` // Không map vào DB, dùng để trả về API
}

// DTO cho API ghi nhận xe vào cổng.
// Kiosk gửi biển số nhập tay HOẶC ảnh chụp (base64) để nhận dạng, hoặc cả hai
// (ảnh chỉ dùng làm bằng chứng khi đã có biển số).
type VehicleEntryDTO struct {
	Plate            string `json:"plate,omitempty"`
	EntryPhotoBase64 string `json:"entry_photo_base64,omitempty"`
}

type VehicleSearchDTO struct {
	PlatePrefix string `form:"platePrefix" binding:"required"`
}
