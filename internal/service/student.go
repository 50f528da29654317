package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bizadmin/internal/hash"
	"github.com/Skotchmaster/bizadmin/internal/models"
	"github.com/Skotchmaster/bizadmin/internal/mykafka"
	"github.com/Skotchmaster/bizadmin/internal/principal"
	"github.com/Skotchmaster/bizadmin/internal/repo"
	"github.com/Skotchmaster/bizadmin/pkg/logging"
	"github.com/Skotchmaster/bizadmin/pkg/tokens"
)

const recentWindow = 30 * 24 * time.Hour

type StudentService struct {
	Repo *repo.GormRepo
	// Principals backs credential checks; Repo is used when nil.
	Principals principal.Store
	Tokens *tokens.Issuer
	Events mykafka.Publisher
	Topic  string
	Now    func() time.Time
}

type StudentAuthResult struct {
	AccessToken string
	TokenType   string
	Student     *models.Student
}

type ListStudentsInput struct {
	Skip   int
	Limit  int
	Status string
	Search string
}

type StatusUpdateInput struct {
	Status          string
	RejectionReason *string
}

type StudentStatistics struct {
	TotalStudents    int64            `json:"total_students"`
	ByStatus         map[string]int64 `json:"by_status"`
	RecentApplicants int64            `json:"recent_applications_30_days"`
	PendingReview    int64            `json:"pending_review"`
}

func (s *StudentService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *StudentService) issue(st *models.Student) (*StudentAuthResult, error) {
	token, err := s.Tokens.Issue(tokens.Subject{ID: st.ID, Type: tokens.TypeStudent}, 0)
	if err != nil {
		return nil, err
	}
	return &StudentAuthResult{AccessToken: token, TokenType: TokenTypeBearer, Student: st}, nil
}

func (s *StudentService) Register(ctx context.Context, in RegisterInput) (*StudentAuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "student.register")

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	name, err := checkFullName(in.FullName)
	if err != nil {
		return nil, err
	}
	phone, err := checkPhone(in.Phone)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	exists, err := s.Repo.StudentEmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	st := &models.Student{
		Email:        email,
		FullName:     name,
		Phone:        phone,
		PasswordHash: pwHash,
		Status:       models.StudentPending,
		IsActive:     true,
	}
	if err := s.Repo.CreateStudent(ctx, st); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return nil, ErrConflict
		}
		return nil, err
	}

	publish(ctx, s.Events, s.Topic, mykafka.AccountEvent{
		Type:        mykafka.EventStudentRegistered,
		PrincipalID: st.ID,
		Kind:        string(principal.KindStudent),
		Email:       st.Email,
		Status:      string(st.Status),
	})
	l.Info("student_registered", "student_id", st.ID)
	return s.issue(st)
}

func (s *StudentService) principals() principal.Store {
	if s.Principals != nil {
		return s.Principals
	}
	return s.Repo
}

func (s *StudentService) Login(ctx context.Context, email, password string) (*StudentAuthResult, error) {
	rec, err := checkCredentials(ctx, s.principals(), principal.KindStudent, email, password)
	if err != nil {
		return nil, err
	}

	st, err := s.Repo.GetStudent(ctx, rec.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	publish(ctx, s.Events, s.Topic, mykafka.AccountEvent{
		Type:        mykafka.EventLoginSucceeded,
		PrincipalID: st.ID,
		Kind:        string(principal.KindStudent),
	})
	return s.issue(st)
}

func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	st, err := s.Repo.GetStudent(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

func (s *StudentService) List(ctx context.Context, in ListStudentsInput) ([]models.Student, error) {
	skip, limit, err := checkPage(in.Skip, in.Limit)
	if err != nil {
		return nil, err
	}
	status := models.StudentStatus(strings.TrimSpace(in.Status))
	if status != "" && !status.Valid() {
		return nil, invalid("status must be one of pending, approved, rejected, enrolled")
	}
	return s.Repo.ListStudents(ctx, repo.StudentFilter{
		Skip:   skip,
		Limit:  limit,
		Status: status,
		Search: strings.TrimSpace(in.Search),
	})
}

// UpdateStatus applies an admission decision.
func (s *StudentService) UpdateStatus(ctx context.Context, actor *principal.Summary, id string, in StatusUpdateInput) (*models.Student, error) {
	status := models.StudentStatus(in.Status)
	if !status.Valid() {
		return nil, invalid("status must be one of pending, approved, rejected, enrolled")
	}
	var reason *string
	if in.RejectionReason != nil && strings.TrimSpace(*in.RejectionReason) != "" {
		r := strings.TrimSpace(*in.RejectionReason)
		reason = &r
	}
	if status == models.StudentRejected && reason == nil {
		return nil, invalid("Rejection reason is required when status is REJECTED")
	}

	now := s.now()
	st, err := s.Repo.UpdateStudent(ctx, id, func(st *models.Student) error {
		st.Status = status
		switch status {
		case models.StudentApproved:
			st.AdmissionDate = &now
			st.RejectionReason = nil
		case models.StudentRejected:
			st.RejectionReason = reason
			st.AdmissionDate = nil
		case models.StudentEnrolled:
			if st.AdmissionDate == nil {
				st.AdmissionDate = &now
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	publish(ctx, s.Events, s.Topic, mykafka.AccountEvent{
		Type:        mykafka.EventStudentStatusChanged,
		PrincipalID: st.ID,
		Kind:        string(principal.KindStudent),
		Status:      string(st.Status),
		ActorID:     actorID(actor),
	})
	return st, nil
}

func (s *StudentService) Delete(ctx context.Context, actor *principal.Summary, id string) error {
	if err := s.Repo.DeleteStudent(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	publish(ctx, s.Events, s.Topic, mykafka.AccountEvent{
		Type:        mykafka.EventStudentDeleted,
		PrincipalID: id,
		Kind:        string(principal.KindStudent),
		ActorID:     actorID(actor),
	})
	return nil
}

func (s *StudentService) Statistics(ctx context.Context) (*StudentStatistics, error) {
	counts, err := s.Repo.CountStudentsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := &StudentStatistics{ByStatus: make(map[string]int64, len(counts))}
	for _, c := range counts {
		out.ByStatus[string(c.Status)] = c.Count
		out.TotalStudents += c.Count
	}
	out.PendingReview = out.ByStatus[string(models.StudentPending)]

	recent, err := s.Repo.CountStudentsSince(ctx, s.now().Add(-recentWindow))
	if err != nil {
		return nil, err
	}
	out.RecentApplicants = recent
	return out, nil
}
