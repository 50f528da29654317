package transport

import (
	"time"

	"github.com/Skotchmaster/bizadmin/internal/models"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string  `json:"email"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone"`
	Password string  `json:"password"`
}

type CreateUserRequest struct {
	RegisterRequest
	Role string `json:"role"`
}

type UpdateUserRequest struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

type StatusUpdateRequest struct {
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type StudentTokenResponse struct {
	TokenResponse
	Student StudentResponse `json:"student"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     *string   `json:"phone"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StudentResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	FullName        string     `json:"full_name"`
	Phone           *string    `json:"phone"`
	Status          string     `json:"status"`
	AdmissionDate   *time.Time `json:"admission_date"`
	RejectionReason *string    `json:"rejection_reason"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func User(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Role:      string(u.Role.Normalize()),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func Users(items []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(items))
	for i := range items {
		out = append(out, User(&items[i]))
	}
	return out
}

func Student(s *models.Student) StudentResponse {
	return StudentResponse{
		ID:              s.ID,
		Email:           s.Email,
		FullName:        s.FullName,
		Phone:           s.Phone,
		Status:          string(s.Status),
		AdmissionDate:   s.AdmissionDate,
		RejectionReason: s.RejectionReason,
		IsActive:        s.IsActive,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func Students(items []models.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(items))
	for i := range items {
		out = append(out, Student(&items[i]))
	}
	return out
}

// DirectoryEntry is the public view of a staff member.
type DirectoryEntry struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func Directory(items []models.User) []DirectoryEntry {
	out := make([]DirectoryEntry, 0, len(items))
	for _, u := range items {
		out = append(out, DirectoryEntry{ID: u.ID, FullName: u.FullName, Role: string(u.Role.Normalize())})
	}
	return out
}
