package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/bizadmin/internal/principal"
	"github.com/Skotchmaster/bizadmin/pkg/logging"
	"github.com/Skotchmaster/bizadmin/pkg/tokens"
)

var (
	ErrMissingCredential = errors.New("missing credentials")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrInactiveAccount   = errors.New("inactive account")
	ErrInsufficientRole  = errors.New("insufficient role")
	ErrLookupFailed      = errors.New("principal lookup failed")
)

const DefaultLookupTimeout = 3 * time.Second

// RoleError names the tier a role gate demanded.
type RoleError struct {
	Required principal.Tier
}

func (e *RoleError) Error() string {
	switch e.Required {
	case principal.TierSuper:
		return "Not enough permissions. Admin role required."
	case principal.TierManager:
		return "Not enough permissions. Admin or Manager role required."
	default:
		return "Not enough permissions."
	}
}

func (e *RoleError) Is(target error) bool { return target == ErrInsufficientRole }

// Authenticator turns a bearer credential into a principal summary.
// It holds no mutable state and is safe for concurrent use.
type Authenticator struct {
	Tokens        *tokens.Issuer
	Store         principal.Store
	LookupTimeout time.Duration
}

func NewAuthenticator(issuer *tokens.Issuer, store principal.Store, lookupTimeout time.Duration) *Authenticator {
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultLookupTimeout
	}
	return &Authenticator{Tokens: issuer, Store: store, LookupTimeout: lookupTimeout}
}

func kindOf(tokenType string) (principal.Kind, bool) {
	switch tokenType {
	case "", string(principal.KindUser):
		return principal.KindUser, true
	case tokens.TypeStudent:
		return principal.KindStudent, true
	default:
		return "", false
	}
}

// Authenticate runs the per-request gate for a principal of the given kind.
func (a *Authenticator) Authenticate(ctx context.Context, credential string, kind principal.Kind) (*principal.Summary, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}

	claims, err := a.Tokens.Verify(credential)
	if err != nil {
		return nil, ErrInvalidCredential
	}
	if claims.Subject == "" {
		return nil, ErrInvalidCredential
	}
	if k, ok := kindOf(claims.Type); !ok || k != kind {
		return nil, ErrInvalidCredential
	}

	rec, err := a.lookup(ctx, kind, claims.Subject)
	if err != nil {
		if errors.Is(err, principal.ErrNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	if !rec.IsActive {
		return nil, ErrInactiveAccount
	}
	return rec.Summary(), nil
}

type lookupResult struct {
	rec *principal.Record
	err error
}

// lookup bounds the store call by the request deadline and LookupTimeout even
// when the store itself ignores its context.
func (a *Authenticator) lookup(ctx context.Context, kind principal.Kind, id string) (*principal.Record, error) {
	timeout := a.LookupTimeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan lookupResult, 1)
	go func() {
		rec, err := a.Store.FindPrincipalByID(ctx, kind, id)
		done <- lookupResult{rec: rec, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil && r.rec == nil {
			return nil, principal.ErrNotFound
		}
		return r.rec, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AuthenticateOptional never fails: a missing or rejected credential yields nil.
// A supplied credential that gets rejected is logged, since the caller cannot
// tell it apart from an anonymous request.
func (a *Authenticator) AuthenticateOptional(ctx context.Context, credential string, kind principal.Kind) *principal.Summary {
	if credential == "" {
		return nil
	}
	s, err := a.Authenticate(ctx, credential, kind)
	if err != nil {
		logging.FromContext(ctx).Warn("optional_auth_degraded", "reason", reasonOf(err), "error", err)
		return nil
	}
	return s
}

// RequireRole lets s through when its role reaches the minimum tier.
func RequireRole(s *principal.Summary, minimum principal.Tier) (*principal.Summary, error) {
	if s == nil {
		return nil, ErrMissingCredential
	}
	if s.Role.Tier() < minimum {
		return nil, &RoleError{Required: minimum}
	}
	return s, nil
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "missing"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid"
	case errors.Is(err, ErrPrincipalNotFound):
		return "not_found"
	case errors.Is(err, ErrInactiveAccount):
		return "inactive"
	case errors.Is(err, ErrInsufficientRole):
		return "insufficient_role"
	case errors.Is(err, ErrLookupFailed):
		return "lookup_failed"
	default:
		return "unknown"
	}
}
