package domain

import "time"

type User struct {
	ID           int64  `json:"id" gorm:"primaryKey"`
	Email        string `json:"email" gorm:"uniqueIndex;not null" validate:"required,email"`
	PasswordHash string `json:"-" gorm:"not null"`
	Role         Role   `json:"role" gorm:"type:varchar(20);not null;index"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	// HourlyRateMinor is the teacher's rate in minor currency units (halalas).
	// Copied onto slots at publish time; later rate changes never touch
	// already-published slots or open bookings.
	HourlyRateMinor int64     `json:"hourly_rate_minor,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
