package integration_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/fixfast/mockdesk/internal/backend"
	"github.com/fixfast/mockdesk/internal/domain/session"
	"github.com/fixfast/mockdesk/internal/domain/ticket"
	"github.com/fixfast/mockdesk/internal/domain/user"
	"github.com/fixfast/mockdesk/internal/sqlite"
	"github.com/fixfast/mockdesk/internal/store"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db      *sqlite.DB
	storage *sqlite.Storage
	svc     *backend.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{db: db, storage: sqlite.NewStorage(db)}
	env.svc = env.restart(t)
	return env
}

// restart builds a fresh service over the same database, as a new process
// would.
func (e *testEnv) restart(t *testing.T) *backend.Service {
	t.Helper()
	svc := backend.NewService(store.New(e.storage), backend.Options{})
	require.NoError(t, svc.Init(context.Background()))
	return svc
}

func (e *testEnv) snapshot(t *testing.T) map[string]string {
	t.Helper()
	ctx := context.Background()
	keys, err := e.storage.Keys(ctx)
	require.NoError(t, err)

	snap := make(map[string]string, len(keys))
	for _, key := range keys {
		value, err := e.storage.Get(ctx, key)
		require.NoError(t, err)
		snap[key] = string(value)
	}
	return snap
}

func TestScenario_CreateListDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	a, err := env.svc.Signup(ctx, "a@x.com", "secret1", "")
	require.NoError(t, err)

	created, err := env.svc.CreateTicket(ctx, ticket.Draft{
		UserID:   a.ID,
		Title:    "Fix login",
		Status:   ticket.StatusOpen,
		Priority: ticket.PriorityHigh,
	}, a.Token)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	list, err := env.svc.ListTickets(ctx, a.Token)
	require.NoError(t, err)
	require.Equal(t, []ticket.Ticket{created}, list)

	require.NoError(t, env.svc.DeleteTicket(ctx, created.ID, a.Token))

	list, err = env.svc.ListTickets(ctx, a.Token)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestScenario_NoCrossUserLeakage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	a, err := env.svc.Signup(ctx, "a@x.com", "secret1", "")
	require.NoError(t, err)
	_, err = env.svc.CreateTicket(ctx, ticket.Draft{UserID: a.ID, Title: "Fix login", Status: ticket.StatusOpen, Priority: ticket.PriorityHigh}, a.Token)
	require.NoError(t, err)

	b, err := env.svc.Signup(ctx, "b@x.com", "secret2", "")
	require.NoError(t, err)

	list, err := env.svc.ListTickets(ctx, b.Token)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestScenario_StateSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	a, err := env.svc.Signup(ctx, "a@x.com", "secret1", "Ada")
	require.NoError(t, err)
	created, err := env.svc.CreateTicket(ctx, ticket.Draft{UserID: a.ID, Title: "Persist me", Status: ticket.StatusOpen, Priority: ticket.PriorityLow}, a.Token)
	require.NoError(t, err)
	before := env.snapshot(t)

	svc := env.restart(t)
	require.Equal(t, before, env.snapshot(t), "init must not reseed existing keys")

	profile, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, a.Profile, profile)

	list, err := svc.ListTickets(ctx, a.Token)
	require.NoError(t, err)
	require.Equal(t, []ticket.Ticket{created}, list)
}

func TestScenario_FailuresLeaveStorageUnchanged(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	a, err := env.svc.Signup(ctx, "a@x.com", "secret1", "")
	require.NoError(t, err)
	b, err := env.svc.Signup(ctx, "b@x.com", "secret2", "")
	require.NoError(t, err)
	owned, err := env.svc.CreateTicket(ctx, ticket.Draft{UserID: a.ID, Title: "Mine", Status: ticket.StatusOpen, Priority: ticket.PriorityLow}, a.Token)
	require.NoError(t, err)

	before := env.snapshot(t)
	title := "stolen"

	_, err = env.svc.Signup(ctx, "A@X.COM", "another", "")
	require.ErrorIs(t, err, user.ErrUserAlreadyExists)

	_, err = env.svc.CreateTicket(ctx, ticket.Draft{UserID: a.ID, Title: "spoof"}, b.Token)
	require.ErrorIs(t, err, ticket.ErrUserIDMismatch)

	_, err = env.svc.UpdateTicket(ctx, owned.ID, ticket.Patch{Title: &title}, b.Token)
	require.ErrorIs(t, err, ticket.ErrUnauthorized)

	err = env.svc.DeleteTicket(ctx, owned.ID, b.Token)
	require.ErrorIs(t, err, ticket.ErrUnauthorized)

	err = env.svc.DeleteTicket(ctx, "missing", a.Token)
	require.ErrorIs(t, err, ticket.ErrTicketNotFound)

	_, err = env.svc.ListTickets(ctx, "mock-token-nobody")
	require.ErrorIs(t, err, session.ErrInvalidToken)

	require.Equal(t, before, env.snapshot(t))
}

func TestPersistedLayout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	a, err := env.svc.Signup(ctx, "a@x.com", "secret1", "")
	require.NoError(t, err)

	snap := env.snapshot(t)
	require.Contains(t, snap, store.KeyUsers)
	require.Contains(t, snap, store.KeyTickets)
	require.Contains(t, snap, store.KeySampleTickets)
	require.Equal(t, a.Token, snap[store.KeySession])
	require.Contains(t, snap[store.KeyUsers], `"createdAt"`)
	require.JSONEq(t, `[]`, snap[store.KeyTickets])
}
