package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bizadmin/internal/principal"
)

type User struct {
	ID           string         `gorm:"primaryKey;size:36"            json:"id"`
	Email        string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName     string         `gorm:"size:255;not null"             json:"full_name"`
	Phone        *string        `gorm:"size:50"                       json:"phone"`
	Role         principal.Role `gorm:"size:20;not null"              json:"role"`
	PasswordHash string         `gorm:"size:255;not null"             json:"-"`
	IsActive     bool           `gorm:"not null"                      json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *User) Record() *principal.Record {
	return &principal.Record{
		ID:           u.ID,
		Kind:         principal.KindUser,
		Email:        u.Email,
		FullName:     u.FullName,
		Role:         u.Role,
		IsActive:     u.IsActive,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

type StudentStatus string

const (
	StudentPending  StudentStatus = "pending"
	StudentApproved StudentStatus = "approved"
	StudentRejected StudentStatus = "rejected"
	StudentEnrolled StudentStatus = "enrolled"
)

var StudentStatuses = []StudentStatus{StudentPending, StudentApproved, StudentRejected, StudentEnrolled}

func (s StudentStatus) Valid() bool {
	for _, v := range StudentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Student struct {
	ID              string        `gorm:"primaryKey;size:36"            json:"id"`
	Email           string        `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName        string        `gorm:"size:255;not null"             json:"full_name"`
	Phone           *string       `gorm:"size:50"                       json:"phone"`
	PasswordHash    string        `gorm:"size:255;not null"             json:"-"`
	Status          StudentStatus `gorm:"size:20;not null;index"        json:"status"`
	AdmissionDate   *time.Time    `json:"admission_date"`
	RejectionReason *string       `json:"rejection_reason"`
	IsActive        bool          `gorm:"not null"                      json:"is_active"`
	CreatedAt       time.Time     `gorm:"index"                         json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (s *Student) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = StudentPending
	}
	return nil
}

// Record exposes students to the authority. Students hold no staff role.
func (s *Student) Record() *principal.Record {
	return &principal.Record{
		ID:           s.ID,
		Kind:         principal.KindStudent,
		Email:        s.Email,
		FullName:     s.FullName,
		IsActive:     s.IsActive,
		PasswordHash: s.PasswordHash,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func All() []any {
	return []any{&User{}, &Student{}}
}
