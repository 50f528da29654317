package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bizadmin/internal/models"
	"github.com/Skotchmaster/bizadmin/internal/mykafka"
	"github.com/Skotchmaster/bizadmin/internal/principal"
)

func seedStaff(t *testing.T, s *AuthService, email string, role principal.Role) *models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), nil, CreateUserInput{
		RegisterInput: RegisterInput{Email: email, FullName: "Staff " + email, Password: "Secret123"},
		Role:          string(role),
	})
	require.NoError(t, err)
	return u
}

func TestRegister_ForcesEmployeeRole(t *testing.T) {
	t.Parallel()

	s, pub := newAuthService(t)
	u, err := s.Register(context.Background(), RegisterInput{
		Email: " new@corp.io ", FullName: "  New Hire ", Password: "Secret123",
	})
	require.NoError(t, err)

	assert.Equal(t, "new@corp.io", u.Email)
	assert.Equal(t, "New Hire", u.FullName)
	assert.Equal(t, principal.RoleEmployee, u.Role)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "Secret123", u.PasswordHash)
	assert.Equal(t, []string{mykafka.EventUserRegistered}, pub.types())
	assert.Equal(t, DefaultTopic, pub.topics[0])
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	s, _ := newAuthService(t)
	cases := []struct {
		name string
		in   RegisterInput
		msg  string
	}{
		{"bad email", RegisterInput{Email: "nope", FullName: "Al Bo", Password: "Secret123"}, "invalid email address"},
		{"short name", RegisterInput{Email: "a@b.com", FullName: "A", Password: "Secret123"}, "full_name must be between 2 and 255 characters"},
		{"short password", RegisterInput{Email: "a@b.com", FullName: "Al Bo", Password: "Se1"}, "Password must be at least 8 characters"},
		{"no digit", RegisterInput{Email: "a@b.com", FullName: "Al Bo", Password: "SecretABC"}, "Password must contain at least one digit"},
		{"no upper", RegisterInput{Email: "a@b.com", FullName: "Al Bo", Password: "secret123"}, "Password must contain at least one uppercase letter"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tc.in)
			require.ErrorIs(t, err, ErrValidation)
			assert.EqualError(t, err, tc.msg)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	s, _ := newAuthService(t)
	in := RegisterInput{Email: "dup@corp.io", FullName: "Dup User", Password: "Secret123"}
	_, err := s.Register(context.Background(), in)
	require.NoError(t, err)

	_, err = s.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateUser_RejectsUnknownRole(t *testing.T) {
	t.Parallel()

	s, _ := newAuthService(t)
	_, err := s.CreateUser(context.Background(), nil, CreateUserInput{
		RegisterInput: RegisterInput{Email: "x@corp.io", FullName: "X Y", Password: "Secret123"},
		Role:          "owner",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogin_IssuesTokenForSubject(t *testing.T) {
	t.Parallel()

	s, pub := newAuthService(t)
	u := seedStaff(t, s, "a@b.com", principal.RoleManager)

	res, err := s.Login(context.Background(), "a@b.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.TokenType)
	assert.Equal(t, u.ID, res.Principal.ID)

	claims, err := s.Tokens.Verify(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Empty(t, claims.Type)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
	assert.Contains(t, pub.types(), mykafka.EventLoginSucceeded)
}

func TestLogin_Failures(t *testing.T) {
	t.Parallel()

	s, _ := newAuthService(t)
	u := seedStaff(t, s, "a@b.com", principal.RoleEmployee)
	ctx := context.Background()

	_, err := s.Login(ctx, "a@b.com", "Wrong123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, "ghost@b.com", "Secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, s.DeactivateUser(ctx, nil, u.ID))
	_, err = s.Login(ctx, "a@b.com", "Secret123")
	assert.ErrorIs(t, err, ErrInactive)

	// inactive status is not revealed to a wrong password
	_, err = s.Login(ctx, "a@b.com", "Wrong123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_PublishFailureDoesNotFailLogin(t *testing.T) {
	t.Parallel()

	s, pub := newAuthService(t)
	seedStaff(t, s, "a@b.com", principal.RoleEmployee)
	pub.err = assert.AnError

	_, err := s.Login(context.Background(), "a@b.com", "Secret123")
	assert.NoError(t, err)
}

func TestGetUser_NotFound(t *testing.T) {
	t.Parallel()

	s, _ := newAuthService(t)
	_, err := s.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListUsers_SQLAndPaging(t *testing.T) {
	t.Parallel()

	s, _ := newAuthService(t)
	ctx := context.Background()
	seedStaff(t, s, "ann@corp.io", principal.RoleEmployee)
	seedStaff(t, s, "bob@corp.io", principal.RoleManager)

	all, err := s.ListUsers(ctx, ListUsersInput{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := s.ListUsers(ctx, ListUsersInput{Search: "BOB"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "bob@corp.io", found[0].Email)

	_, err = s.ListUsers(ctx, ListUsersInput{Limit: 1001})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.ListUsers(ctx, ListUsersInput{Skip: -1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListUsers_IndexedSearchKeepsRankOrder(t *testing.T) {
	t.Parallel()

	s, _ := newAuthService(t)
	fs := &fakeSearcher{}
	s.Search = fs
	ctx := context.Background()
	a := seedStaff(t, s, "ann@corp.io", principal.RoleEmployee)
	b := seedStaff(t, s, "bob@corp.io", principal.RoleEmployee)
	assert.Len(t, fs.indexed, 2)

	fs.ids = []string{b.ID, "stale-id", a.ID}
	got, err := s.ListUsers(ctx, ListUsersInput{Search: "corp"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)

	fs.ids = nil
	got, err = s.ListUsers(ctx, ListUsersInput{Search: "zzz"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListUsers_FallsBackWhenIndexDown(t *testing.T) {
	t.Parallel()

	s, _ := newAuthService(t)
	s.Search = &fakeSearcher{err: errSearchDown}
	seedStaff(t, s, "ann@corp.io", principal.RoleEmployee)

	got, err := s.ListUsers(context.Background(), ListUsersInput{Search: "ann"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ann@corp.io", got[0].Email)
}

func TestDirectory_InactiveVisibility(t *testing.T) {
	t.Parallel()

	s, _ := newAuthService(t)
	ctx := context.Background()
	seedStaff(t, s, "on@corp.io", principal.RoleEmployee)
	off := seedStaff(t, s, "off@corp.io", principal.RoleEmployee)
	require.NoError(t, s.DeactivateUser(ctx, nil, off.ID))

	anon, err := s.Directory(ctx, nil, true, 0, 0)
	require.NoError(t, err)
	assert.Len(t, anon, 1)

	employee := &principal.Summary{ID: "e", Role: principal.RoleEmployee}
	got, err := s.Directory(ctx, employee, true, 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	manager := &principal.Summary{ID: "m", Role: principal.RoleManager}
	got, err = s.Directory(ctx, manager, true, 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.Directory(ctx, manager, false, 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestUpdateUser(t *testing.T) {
	t.Parallel()

	s, pub := newAuthService(t)
	ctx := context.Background()
	u := seedStaff(t, s, "a@corp.io", principal.RoleEmployee)
	seedStaff(t, s, "b@corp.io", principal.RoleEmployee)
	admin := &principal.Summary{ID: "admin-1", Role: principal.RoleAdmin}

	got, err := s.UpdateUser(ctx, admin, u.ID, UpdateUserInput{
		FullName: strPtr("Renamed User"),
		Role:     strPtr("user"),
		IsActive: boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed User", got.FullName)
	assert.Equal(t, principal.RoleEmployee, got.Role)
	assert.False(t, got.IsActive)

	_, err = s.UpdateUser(ctx, admin, u.ID, UpdateUserInput{Email: strPtr("b@corp.io")})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.UpdateUser(ctx, admin, u.ID, UpdateUserInput{Role: strPtr("owner")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.UpdateUser(ctx, admin, "missing", UpdateUserInput{FullName: strPtr("Nobody Here")})
	assert.ErrorIs(t, err, ErrNotFound)

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, mykafka.EventUserUpdated, last.Type)
	assert.Equal(t, "admin-1", last.ActorID)
}

func TestDeactivateUser_NotFound(t *testing.T) {
	t.Parallel()

	s, _ := newAuthService(t)
	assert.ErrorIs(t, s.DeactivateUser(context.Background(), nil, "missing"), ErrNotFound)
}

func TestLogin_StoreFailureIsUnavailable(t *testing.T) {
	t.Parallel()

	s, pub := newAuthService(t)
	seedStaff(t, s, "a@b.com", principal.RoleEmployee)
	s.Principals = downStore{}

	_, err := s.Login(context.Background(), "a@b.com", "Secret123")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.NotContains(t, pub.types(), mykafka.EventLoginSucceeded)
}
