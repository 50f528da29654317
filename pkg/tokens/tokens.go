package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultTTL = 30 * time.Minute

	AlgorithmHS256 = "HS256"

	TypeStudent = "student"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrConfiguration = errors.New("invalid token signing configuration")
	ErrNoSubject     = errors.New("token subject is required")
)

// Claims is the wire payload: sub, exp, iat and the optional type discriminator.
type Claims struct {
	Type string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

type Subject struct {
	ID   string
	Type string
}

// Issuer signs and verifies session tokens with one process-wide HS256 secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewIssuer(secret []byte, algorithm string, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty secret", ErrConfiguration)
	}
	if algorithm != AlgorithmHS256 {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrConfiguration, algorithm)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	i := &Issuer{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	i.parser = i.newParser()
	return i, nil
}

func (i *Issuer) newParser() *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{AlgorithmHS256}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(i.now),
	)
}

// WithClock returns a copy of the issuer reading time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	cp.parser = cp.newParser()
	return &cp
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for s valid for ttl; zero ttl means the configured default.
// A negative ttl yields an already expired token.
func (i *Issuer) Issue(s Subject, ttl time.Duration) (string, error) {
	if s.ID == "" {
		return "", ErrNoSubject
	}
	if ttl == 0 {
		ttl = i.ttl
	}
	now := i.now()
	claims := Claims{
		Type: s.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify returns the decoded claims or ErrInvalidToken. The cause is not exposed.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	var claims Claims
	tkn, err := i.parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return i.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
