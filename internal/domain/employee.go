package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// Employee là nhân viên có xe được miễn phí đỗ. Gán xe cho nhân viên sẽ bật cờ
// is_employee_vehicle trên xe đó.
type Employee struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	Position   null.String `json:"position,omitempty"`
	Department null.String `json:"department,omitempty"`
	VehicleID  null.Int    `json:"vehicle_id"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type RegisterEmployeeDTO struct {
	Name       string `json:"name" binding:"required,max=100"`
	Position   string `json:"position,omitempty"`
	Department string `json:"department,omitempty"`
	Plate      string `json:"plate,omitempty"` // Biển số xe của nhân viên (nếu có)
}
