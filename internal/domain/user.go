package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type User struct {
	ID        int         `json:"id"`
	Username  string      `json:"username"`
	Password  string      `json:"-"`    // Không bao giờ trả về password hash trong JSON
	Role      string      `json:"role"` // "admin" hoặc "operator"
	FullName  null.String `json:"full_name,omitempty"`
	Email     null.String `json:"email,omitempty"`
	LastLogin null.Time   `json:"last_login"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type RegisterUserDTO struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=100"`
	Role     string `json:"role,omitempty"` // Tùy chọn, mặc định là "operator"
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty" binding:"omitempty,email"`
}

type LoginUserDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponseDTO struct {
	Token    string `json:"token"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
