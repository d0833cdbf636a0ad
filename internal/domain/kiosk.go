package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type KioskStatus string

const (
	KioskActive      KioskStatus = "active"
	KioskInactive    KioskStatus = "inactive"
	KioskMaintenance KioskStatus = "maintenance"
)

// Kiosk là một quầy thu ngân/máy trạm trong bãi xe.
type Kiosk struct {
	ID              int         `json:"id"`
	Location        string      `json:"location"`
	Status          KioskStatus `json:"status"`
	LastMaintenance null.Time   `json:"last_maintenance"`
	ManagedBy       null.Int    `json:"managed_by"` // ID của user quản lý
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type KioskDTO struct {
	Location        string `json:"location" binding:"required,max=100"`
	Status          string `json:"status,omitempty"`
	LastMaintenance string `json:"last_maintenance,omitempty"` // RFC3339
	ManagedBy       *int   `json:"managed_by,omitempty"`
}
