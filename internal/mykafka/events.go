package mykafka

import "time"

const (
	EventUserRegistered       = "user_registered"
	EventUserCreated          = "user_created"
	EventUserUpdated          = "user_updated"
	EventUserDeactivated      = "user_deactivated"
	EventLoginSucceeded       = "login_succeeded"
	EventStudentRegistered    = "student_registered"
	EventStudentStatusChanged = "student_status_changed"
	EventStudentDeleted       = "student_deleted"
)

// AccountEvent never carries credentials.
type AccountEvent struct {
	Type        string    `json:"type"`
	PrincipalID string    `json:"principal_id"`
	Kind        string    `json:"kind"`
	At          time.Time `json:"at"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role,omitempty"`
	Status      string    `json:"status,omitempty"`
	ActorID     string    `json:"actor_id,omitempty"`
}
