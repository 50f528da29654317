package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bizadmin/internal/mykafka"
	"github.com/Skotchmaster/bizadmin/internal/principal"
	"github.com/Skotchmaster/bizadmin/internal/repo"
	"github.com/Skotchmaster/bizadmin/internal/service/search"
	"github.com/Skotchmaster/bizadmin/internal/testdb"
	"github.com/Skotchmaster/bizadmin/pkg/tokens"
)

var testSecret = []byte("test-secret-key-for-service-tests")

type recordingPublisher struct {
	mu     sync.Mutex
	events []mykafka.AccountEvent
	topics []string
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event.(mykafka.AccountEvent))
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeSearcher struct {
	indexed []search.UserDoc
	ids     []string
	err     error
	queries []string
}

func (f *fakeSearcher) IndexUser(_ context.Context, doc search.UserDoc) error {
	f.indexed = append(f.indexed, doc)
	return nil
}

func (f *fakeSearcher) SearchUsers(_ context.Context, q string, _, _ int) ([]string, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.ids, nil
}

var errSearchDown = errors.New("search cluster down")

var errStoreDown = errors.New("connection refused")

// downStore fails every lookup the way a lost database connection does.
type downStore struct{}

func (downStore) FindPrincipalByID(context.Context, principal.Kind, string) (*principal.Record, error) {
	return nil, errStoreDown
}

func (downStore) FindPrincipalByEmail(context.Context, principal.Kind, string) (*principal.Record, error) {
	return nil, errStoreDown
}

func newIssuer(t *testing.T) *tokens.Issuer {
	t.Helper()
	iss, err := tokens.NewIssuer(testSecret, tokens.AlgorithmHS256, 0)
	require.NoError(t, err)
	return iss
}

func newAuthService(t *testing.T) (*AuthService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return &AuthService{
		Repo:   &repo.GormRepo{DB: testdb.New(t)},
		Tokens: newIssuer(t),
		Events: pub,
	}, pub
}

func newStudentService(t *testing.T, now time.Time) (*StudentService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return &StudentService{
		Repo:   &repo.GormRepo{DB: testdb.New(t)},
		Tokens: newIssuer(t),
		Events: pub,
		Now:    func() time.Time { return now },
	}, pub
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
