package backend_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fixfast/mockdesk/internal/backend"
	"github.com/fixfast/mockdesk/internal/domain/session"
	"github.com/fixfast/mockdesk/internal/domain/ticket"
	"github.com/fixfast/mockdesk/internal/domain/user"
	"github.com/fixfast/mockdesk/internal/idgen"
	"github.com/fixfast/mockdesk/internal/memory"
	"github.com/fixfast/mockdesk/internal/repository/mocks"
	"github.com/fixfast/mockdesk/internal/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, opts backend.Options) (*backend.Service, *memory.Storage) {
	t.Helper()

	storage := memory.New()
	seq := 0
	if opts.NewID == nil {
		opts.NewID = func(prefix string) string {
			seq++
			return fmt.Sprintf("%s%d", prefix, seq)
		}
	}
	clock := epoch
	if opts.Now == nil {
		opts.Now = func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}
	}

	svc := backend.NewService(store.New(storage), opts)
	require.NoError(t, svc.Init(context.Background()))
	return svc, storage
}

func signup(t *testing.T, svc *backend.Service, email string) backend.AuthResult {
	t.Helper()
	res, err := svc.Signup(context.Background(), email, "secret1", "")
	require.NoError(t, err)
	return res
}

func strPtr(s string) *string { return &s }

func TestSignup_ThenVerify(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, backend.Options{})

	res, err := svc.Signup(ctx, "A@X.com", "secret1", "Ada")
	require.NoError(t, err)
	require.Equal(t, "a@x.com", res.Email)
	require.Equal(t, "Ada", res.Name)
	require.Equal(t, session.TokenFor(res.ID), res.Token)

	u, err := svc.VerifySession(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, res.ID, u.ID)
	require.Equal(t, "secret1", u.Password)

	active, err := svc.ActiveToken(ctx)
	require.NoError(t, err)
	require.Equal(t, res.Token, active)
}

func TestSignup_DuplicateEmailAnyCase(t *testing.T) {
	ctx := context.Background()
	svc, storage := newService(t, backend.Options{})
	signup(t, svc, "a@x.com")
	require.NoError(t, svc.Logout(ctx))

	before := storage.Snapshot()
	_, err := svc.Signup(ctx, "A@X.COM", "other12", "")
	require.ErrorIs(t, err, user.ErrUserAlreadyExists)
	require.Equal(t, before, storage.Snapshot())
}

func TestSignup_SessionWriteFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	storage := &mocks.Storage{}
	storage.On("Get", ctx, store.KeyUsers).Return([]byte(`[]`), nil)
	storage.On("Set", ctx, store.KeyUsers, []byte(`[{"id":"u1","email":"a@x.com","password":"secret1","createdAt":"2025-03-01T12:00:00Z"}]`)).Return(nil).Once()
	storage.On("Set", ctx, store.KeySession, []byte("mock-token-u1")).Return(errors.New("quota exceeded"))
	storage.On("Set", ctx, store.KeyUsers, []byte(`[]`)).Return(nil).Once()

	svc := backend.NewService(store.New(storage), backend.Options{
		NewID: func(prefix string) string { return prefix + "1" },
		Now:   func() time.Time { return epoch },
	})

	_, err := svc.Signup(ctx, "a@x.com", "secret1", "")
	require.Error(t, err)
	storage.AssertExpectations(t)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, backend.Options{})
	created := signup(t, svc, "a@x.com")
	require.NoError(t, svc.Logout(ctx))

	res, err := svc.Login(ctx, "A@x.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, created.ID, res.ID)
	require.Equal(t, created.Token, res.Token)

	active, err := svc.ActiveToken(ctx)
	require.NoError(t, err)
	require.Equal(t, res.Token, active)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc, storage := newService(t, backend.Options{})
	signup(t, svc, "a@x.com")
	before := storage.Snapshot()

	_, wrongPassword := svc.Login(ctx, "a@x.com", "nope")
	_, unknownEmail := svc.Login(ctx, "z@x.com", "secret1")

	require.ErrorIs(t, wrongPassword, user.ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, user.ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	require.Equal(t, before, storage.Snapshot())
}

func TestVerifySession_Errors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, backend.Options{})
	signup(t, svc, "a@x.com")

	_, err := svc.VerifySession(ctx, "")
	require.ErrorIs(t, err, session.ErrNoToken)

	_, err = svc.VerifySession(ctx, "mock-token-u999")
	require.ErrorIs(t, err, session.ErrInvalidToken)

	_, err = svc.VerifySession(ctx, "garbage")
	require.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestTicketLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, backend.Options{})
	a := signup(t, svc, "a@x.com")

	created, err := svc.CreateTicket(ctx, ticket.Draft{
		UserID:   a.ID,
		Title:    "Fix login",
		Status:   ticket.StatusOpen,
		Priority: ticket.PriorityHigh,
	}, a.Token)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())
	require.Equal(t, a.ID, created.UserID)

	list, err := svc.ListTickets(ctx, a.Token)
	require.NoError(t, err)
	require.Equal(t, []ticket.Ticket{created}, list)

	require.NoError(t, svc.DeleteTicket(ctx, created.ID, a.Token))

	list, err = svc.ListTickets(ctx, a.Token)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	b := signup(t, svc, "b@x.com")
	list, err = svc.ListTickets(ctx, b.Token)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestListTickets_IsolatesOwnersInStorageOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, backend.Options{})
	a := signup(t, svc, "a@x.com")
	b := signup(t, svc, "b@x.com")

	var wantA []string
	for i := 0; i < 3; i++ {
		ta, err := svc.CreateTicket(ctx, ticket.Draft{UserID: a.ID, Title: fmt.Sprintf("a%d", i)}, a.Token)
		require.NoError(t, err)
		wantA = append(wantA, ta.ID)

		_, err = svc.CreateTicket(ctx, ticket.Draft{UserID: b.ID, Title: fmt.Sprintf("b%d", i)}, b.Token)
		require.NoError(t, err)
	}

	list, err := svc.ListTickets(ctx, a.Token)
	require.NoError(t, err)
	var gotA []string
	for _, tk := range list {
		require.Equal(t, a.ID, tk.UserID)
		gotA = append(gotA, tk.ID)
	}
	require.Equal(t, wantA, gotA)
}

func TestCreateTicket_UserIDMismatch(t *testing.T) {
	ctx := context.Background()
	svc, storage := newService(t, backend.Options{})
	a := signup(t, svc, "a@x.com")
	b := signup(t, svc, "b@x.com")
	before := storage.Snapshot()

	_, err := svc.CreateTicket(ctx, ticket.Draft{UserID: b.ID, Title: "spoof"}, a.Token)
	require.ErrorIs(t, err, ticket.ErrUserIDMismatch)

	_, err = svc.CreateTicket(ctx, ticket.Draft{Title: "no owner"}, a.Token)
	require.ErrorIs(t, err, ticket.ErrUserIDMismatch)

	require.Equal(t, before, storage.Snapshot())
}

func TestCreateTicket_InvalidToken(t *testing.T) {
	ctx := context.Background()
	svc, storage := newService(t, backend.Options{})
	before := storage.Snapshot()

	_, err := svc.CreateTicket(ctx, ticket.Draft{UserID: "u1", Title: "x"}, "mock-token-u1")
	require.ErrorIs(t, err, session.ErrInvalidToken)
	require.Equal(t, before, storage.Snapshot())
}

func TestUpdateTicket_MergesPresentFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, backend.Options{})
	a := signup(t, svc, "a@x.com")
	created, err := svc.CreateTicket(ctx, ticket.Draft{
		UserID: a.ID, Title: "Fix login", Description: "mobile", Status: ticket.StatusOpen, Priority: ticket.PriorityLow,
	}, a.Token)
	require.NoError(t, err)

	closed := ticket.StatusClosed
	updated, err := svc.UpdateTicket(ctx, created.ID, ticket.Patch{Status: &closed}, a.Token)
	require.NoError(t, err)
	require.Equal(t, ticket.StatusClosed, updated.Status)
	require.Equal(t, "Fix login", updated.Title)
	require.Equal(t, "mobile", updated.Description)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)

	list, err := svc.ListTickets(ctx, a.Token)
	require.NoError(t, err)
	require.Equal(t, []ticket.Ticket{updated}, list)
}

func TestUpdateTicket_IdentityFields(t *testing.T) {
	ctx := context.Background()

	t.Run("overwritten by default", func(t *testing.T) {
		svc, _ := newService(t, backend.Options{})
		a := signup(t, svc, "a@x.com")
		created, err := svc.CreateTicket(ctx, ticket.Draft{UserID: a.ID, Title: "x"}, a.Token)
		require.NoError(t, err)

		updated, err := svc.UpdateTicket(ctx, created.ID, ticket.Patch{ID: strPtr("renamed")}, a.Token)
		require.NoError(t, err)
		require.Equal(t, "renamed", updated.ID)
	})

	t.Run("ignored when protected", func(t *testing.T) {
		svc, _ := newService(t, backend.Options{ProtectIdentity: true})
		a := signup(t, svc, "a@x.com")
		created, err := svc.CreateTicket(ctx, ticket.Draft{UserID: a.ID, Title: "x"}, a.Token)
		require.NoError(t, err)

		updated, err := svc.UpdateTicket(ctx, created.ID, ticket.Patch{
			ID:     strPtr("renamed"),
			UserID: strPtr("u999"),
			Title:  strPtr("y"),
		}, a.Token)
		require.NoError(t, err)
		require.Equal(t, created.ID, updated.ID)
		require.Equal(t, a.ID, updated.UserID)
		require.Equal(t, "y", updated.Title)
	})
}

func TestUpdateAndDelete_Ownership(t *testing.T) {
	ctx := context.Background()
	svc, storage := newService(t, backend.Options{})
	a := signup(t, svc, "a@x.com")
	b := signup(t, svc, "b@x.com")
	owned, err := svc.CreateTicket(ctx, ticket.Draft{UserID: a.ID, Title: "mine"}, a.Token)
	require.NoError(t, err)
	before := storage.Snapshot()

	_, err = svc.UpdateTicket(ctx, owned.ID, ticket.Patch{Title: strPtr("stolen")}, b.Token)
	require.ErrorIs(t, err, ticket.ErrUnauthorized)

	err = svc.DeleteTicket(ctx, owned.ID, b.Token)
	require.ErrorIs(t, err, ticket.ErrUnauthorized)

	_, err = svc.UpdateTicket(ctx, "t404", ticket.Patch{Title: strPtr("x")}, a.Token)
	require.ErrorIs(t, err, ticket.ErrTicketNotFound)

	err = svc.DeleteTicket(ctx, "t404", a.Token)
	require.ErrorIs(t, err, ticket.ErrTicketNotFound)

	err = svc.DeleteTicket(ctx, owned.ID, "")
	require.ErrorIs(t, err, session.ErrNoToken)

	require.Equal(t, before, storage.Snapshot())
}

func TestSampleTicketsUntouchedByWrites(t *testing.T) {
	ctx := context.Background()
	svc, storage := newService(t, backend.Options{})
	samples := storage.Snapshot()[store.KeySampleTickets]

	a := signup(t, svc, "a@x.com")
	_, err := svc.CreateTicket(ctx, ticket.Draft{UserID: a.ID, Title: "x"}, a.Token)
	require.NoError(t, err)

	// Sample ids are not reachable through the user-owned collection.
	err = svc.DeleteTicket(ctx, "t1", a.Token)
	require.ErrorIs(t, err, ticket.ErrTicketNotFound)

	list, err := svc.SampleTickets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, samples, storage.Snapshot()[store.KeySampleTickets])
}

func TestCurrentUser_ClearsStaleSlot(t *testing.T) {
	ctx := context.Background()
	svc, storage := newService(t, backend.Options{})

	require.False(t, svc.IsAuthenticated(ctx))

	a := signup(t, svc, "a@x.com")
	profile, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, a.Profile, profile)
	require.True(t, svc.IsAuthenticated(ctx))

	require.NoError(t, storage.Set(ctx, store.KeySession, []byte("mock-token-ghost")))
	_, err = svc.CurrentUser(ctx)
	require.ErrorIs(t, err, session.ErrInvalidToken)

	_, err = svc.ActiveToken(ctx)
	require.ErrorIs(t, err, session.ErrNoToken)
}

func TestClearStaleSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, backend.Options{})
	a := signup(t, svc, "a@x.com")

	require.NoError(t, svc.ClearStaleSession(ctx, "mock-token-other"))
	active, err := svc.ActiveToken(ctx)
	require.NoError(t, err)
	require.Equal(t, a.Token, active)

	require.NoError(t, svc.ClearStaleSession(ctx, a.Token))
	_, err = svc.ActiveToken(ctx)
	require.ErrorIs(t, err, session.ErrNoToken)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, backend.Options{})
	a := signup(t, svc, "a@x.com")

	statuses := []ticket.Status{ticket.StatusOpen, ticket.StatusOpen, ticket.StatusClosed, ticket.StatusInProgress, ticket.StatusOpen, ticket.StatusClosed}
	var ids []string
	for i, st := range statuses {
		tk, err := svc.CreateTicket(ctx, ticket.Draft{UserID: a.ID, Title: fmt.Sprintf("t%d", i), Status: st}, a.Token)
		require.NoError(t, err)
		ids = append(ids, tk.ID)
	}

	summary, err := svc.Dashboard(ctx, a.Token, 0)
	require.NoError(t, err)
	require.Equal(t, ticket.Stats{Total: 6, Open: 3, InProgress: 1, Closed: 2}, summary.Stats)
	require.Len(t, summary.Recent, ticket.DefaultRecentLimit)
	require.Equal(t, ids[5], summary.Recent[0].ID)

	_, err = svc.Dashboard(ctx, "", 3)
	require.ErrorIs(t, err, session.ErrNoToken)
}

func TestLatency_WaitsAfterSuccessEvenWhenCancelled(t *testing.T) {
	svc, _ := newService(t, backend.Options{TicketLatency: 50 * time.Millisecond})
	a := signup(t, svc, "a@x.com")

	start := time.Now()
	_, err := svc.ListTickets(context.Background(), a.Token)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	// Failed ticket calls return without waiting.
	start = time.Now()
	_, err = svc.ListTickets(context.Background(), "")
	require.ErrorIs(t, err, session.ErrNoToken)
	require.Less(t, time.Since(start), 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start = time.Now()
	created, err := svc.CreateTicket(ctx, ticket.Draft{UserID: a.ID, Title: "x"}, a.Token)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	list, err := svc.ListTickets(context.Background(), a.Token)
	require.NoError(t, err)
	require.Equal(t, []ticket.Ticket{created}, list)
}

func TestStorageFailurePropagates(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("storage offline")
	storage := &mocks.Storage{}
	storage.On("Get", ctx, mock.Anything).Return(nil, boom)

	svc := backend.NewService(store.New(storage), backend.Options{})
	_, err := svc.Login(ctx, "a@x.com", "secret1")
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestConcurrentWrites_AreAtomic(t *testing.T) {
	const n = 50
	ctx := context.Background()
	svc, _ := newService(t, backend.Options{NewID: idgen.New, Now: time.Now})
	owner := signup(t, svc, "owner@x.com")

	var wg sync.WaitGroup
	createErrs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			draft := ticket.Draft{UserID: owner.ID, Title: fmt.Sprintf("ticket %d", i)}
			_, createErrs[i] = svc.CreateTicket(ctx, draft, owner.Token)
		}(i)
	}
	wg.Wait()
	for _, err := range createErrs {
		require.NoError(t, err)
	}

	list, err := svc.ListTickets(ctx, owner.Token)
	require.NoError(t, err)
	require.Len(t, list, n)
	ids := make(map[string]struct{}, n)
	for _, tk := range list {
		ids[tk.ID] = struct{}{}
	}
	require.Len(t, ids, n)

	signupErrs := make([]error, n)
	for i := 0; i < n; i++ {
		email := "A@x.com"
		if i%2 == 1 {
			email = "a@X.COM"
		}
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()
			_, signupErrs[i] = svc.Signup(ctx, email, "secret1", "")
		}(i, email)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range signupErrs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, user.ErrUserAlreadyExists)
	}
	require.Equal(t, 1, succeeded)
}
