package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bizadmin/internal/hash"
	"github.com/Skotchmaster/bizadmin/internal/models"
	"github.com/Skotchmaster/bizadmin/internal/mykafka"
	"github.com/Skotchmaster/bizadmin/internal/principal"
	"github.com/Skotchmaster/bizadmin/internal/repo"
	"github.com/Skotchmaster/bizadmin/internal/service/search"
	"github.com/Skotchmaster/bizadmin/pkg/logging"
	"github.com/Skotchmaster/bizadmin/pkg/tokens"
)

const TokenTypeBearer = "bearer"

// UserSearcher is the optional full-text directory behind GET /users?search=.
type UserSearcher interface {
	IndexUser(ctx context.Context, doc search.UserDoc) error
	SearchUsers(ctx context.Context, query string, from, size int) ([]string, error)
}

type AuthService struct {
	Repo *repo.GormRepo
	// Principals backs credential checks; Repo is used when nil.
	Principals principal.Store
	Tokens *tokens.Issuer
	Events mykafka.Publisher
	Topic  string
	Search UserSearcher
}

type LoginResult struct {
	AccessToken string
	TokenType   string
	Principal   *principal.Summary
}

type RegisterInput struct {
	Email    string
	FullName string
	Phone    *string
	Password string
}

type CreateUserInput struct {
	RegisterInput
	Role string
}

type UpdateUserInput struct {
	Email    *string
	FullName *string
	Phone    *string
	Role     *string
	IsActive *bool
}

type ListUsersInput struct {
	Skip   int
	Limit  int
	Search string
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// equalizeTiming spends one bcrypt comparison so unknown emails cost the same as wrong passwords.
func equalizeTiming(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = hash.HashPassword("timing-equalizer-0")
	})
	_ = hash.CheckPassword(dummyHash, password)
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.createUser(ctx, in, principal.RoleEmployee, mykafka.EventUserRegistered, "")
}

func (s *AuthService) CreateUser(ctx context.Context, actor *principal.Summary, in CreateUserInput) (*models.User, error) {
	role, err := principal.ParseRole(in.Role)
	if err != nil {
		return nil, invalid("role must be one of admin, manager, employee")
	}
	return s.createUser(ctx, in.RegisterInput, role, mykafka.EventUserCreated, actorID(actor))
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput, role principal.Role, event, actor string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.create_user")

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

	exists, err := s.Repo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("create_user_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:        email,
		FullName:     name,
		Phone:        phone,
		Role:         role,
		PasswordHash: pwHash,
		IsActive:     true,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.index(ctx, user)
	publish(ctx, s.Events, s.Topic, mykafka.AccountEvent{
		Type:        event,
		PrincipalID: user.ID,
		Kind:        string(principal.KindUser),
		Email:       user.Email,
		Role:        string(user.Role),
		ActorID:     actor,
	})
	l.Info("user_created", "user_id", user.ID, "role", string(user.Role))
	return user, nil
}

func (s *AuthService) principals() principal.Store {
	if s.Principals != nil {
		return s.Principals
	}
	return s.Repo
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	rec, err := checkCredentials(ctx, s.principals(), principal.KindUser, email, password)
	if err != nil {
		return nil, err
	}

	token, err := s.Tokens.Issue(tokens.Subject{ID: rec.ID}, 0)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, s.Topic, mykafka.AccountEvent{
		Type:        mykafka.EventLoginSucceeded,
		PrincipalID: rec.ID,
		Kind:        string(principal.KindUser),
	})
	l.Info("login_successful", "user_id", rec.ID)
	return &LoginResult{AccessToken: token, TokenType: TokenTypeBearer, Principal: rec.Summary()}, nil
}

// checkCredentials resolves an email and password against the store.
// The password is checked before the active flag so a deactivated account
// does not reveal itself to a wrong guess.
func checkCredentials(ctx context.Context, store principal.Store, kind principal.Kind, email, password string) (*principal.Record, error) {
	l := logging.FromContext(ctx).With("kind", string(kind))

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	rec, err := store.FindPrincipalByEmail(ctx, kind, email)
	if err != nil {
		if errors.Is(err, principal.ErrNotFound) {
			equalizeTiming(password)
			l.Warn("login_failed", "reason", "invalid credentials")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_error", "reason", "principal lookup failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !hash.CheckPassword(rec.PasswordHash, password) {
		l.Warn("login_failed", "reason", "invalid credentials")
		return nil, ErrInvalidCredentials
	}
	if !rec.IsActive {
		l.Warn("login_failed", "reason", "inactive account", "principal_id", rec.ID)
		return nil, ErrInactive
	}
	return rec, nil
}

func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.Repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context, in ListUsersInput) ([]models.User, error) {
	skip, limit, err := checkPage(in.Skip, in.Limit)
	if err != nil {
		return nil, err
	}
	q := strings.TrimSpace(in.Search)

	if q != "" && s.Search != nil {
		users, err := s.searchIndexed(ctx, q, skip, limit)
		if err == nil {
			return users, nil
		}
		logging.FromContext(ctx).Warn("user_search_fallback", "reason", "elasticsearch unavailable", "error", err)
	}

	return s.Repo.ListUsers(ctx, repo.UserFilter{Skip: skip, Limit: limit, Search: q})
}

func (s *AuthService) searchIndexed(ctx context.Context, q string, skip, limit int) ([]models.User, error) {
	ids, err := s.Search.SearchUsers(ctx, q, skip, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	found, err := s.Repo.ListUsers(ctx, repo.UserFilter{IDs: ids, Limit: len(ids)})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// Directory lists staff. Anonymous callers and non-managers only see active accounts.
func (s *AuthService) Directory(ctx context.Context, viewer *principal.Summary, includeInactive bool, skip, limit int) ([]models.User, error) {
	skip, limit, err := checkPage(skip, limit)
	if err != nil {
		return nil, err
	}
	canSeeInactive := viewer != nil && viewer.Role.Tier() >= principal.TierManager
	return s.Repo.ListUsers(ctx, repo.UserFilter{
		Skip:       skip,
		Limit:      limit,
		ActiveOnly: !(includeInactive && canSeeInactive),
	})
}

func (s *AuthService) UpdateUser(ctx context.Context, actor *principal.Summary, id string, in UpdateUserInput) (*models.User, error) {
	fields := map[string]any{}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if in.FullName != nil {
		name, err := checkFullName(*in.FullName)
		if err != nil {
			return nil, err
		}
		fields["full_name"] = name
	}
	if in.Phone != nil {
		phone, err := checkPhone(in.Phone)
		if err != nil {
			return nil, err
		}
		fields["phone"] = phone
	}
	if in.Role != nil {
		role, err := principal.ParseRole(*in.Role)
		if err != nil {
			return nil, invalid("role must be one of admin, manager, employee")
		}
		fields["role"] = role
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}

	user, err := s.Repo.UpdateUser(ctx, id, fields)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repo.ErrEmailTaken):
			return nil, ErrConflict
		}
		return nil, err
	}

	s.index(ctx, user)
	publish(ctx, s.Events, s.Topic, mykafka.AccountEvent{
		Type:        mykafka.EventUserUpdated,
		PrincipalID: user.ID,
		Kind:        string(principal.KindUser),
		Role:        string(user.Role),
		ActorID:     actorID(actor),
	})
	return user, nil
}

// DeactivateUser is a soft delete; the row stays and the account stops authenticating.
func (s *AuthService) DeactivateUser(ctx context.Context, actor *principal.Summary, id string) error {
	user, err := s.Repo.UpdateUser(ctx, id, map[string]any{"is_active": false})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.index(ctx, user)
	publish(ctx, s.Events, s.Topic, mykafka.AccountEvent{
		Type:        mykafka.EventUserDeactivated,
		PrincipalID: user.ID,
		Kind:        string(principal.KindUser),
		ActorID:     actorID(actor),
	})
	return nil
}

func (s *AuthService) index(ctx context.Context, u *models.User) {
	if s.Search == nil {
		return
	}
	doc := search.UserDoc{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: string(u.Role), IsActive: u.IsActive}
	if err := s.Search.IndexUser(ctx, doc); err != nil {
		logging.FromContext(ctx).Warn("user_index_failed", "user_id", u.ID, "error", err)
	}
}

func actorID(s *principal.Summary) string {
	if s == nil {
		return ""
	}
	return s.ID
}
