package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/stretchr/testify/require"

	"github.com/open-rails/signon/core"
	memorystore "github.com/open-rails/signon/storage/memory"
)

type noopVerifier struct{}

func (noopVerifier) VerifyIDToken(ctx context.Context, idToken string) (*core.IdentityClaims, error) {
	return &core.IdentityClaims{UID: "u"}, nil
}

func seedUser(t *testing.T, users *memorystore.Users, id string, status core.UserStatus, age time.Duration) {
	t.Helper()
	require.NoError(t, users.CreateUser(context.Background(), &core.UserRecord{
		ID:        id,
		Email:     id + "@example.com",
		Status:    status,
		CreatedAt: time.Now().Add(-age),
	}))
}

func TestPurgePendingSignupsSweepsStaleRows(t *testing.T) {
	users := memorystore.NewUsers()
	svc := core.NewService(noopVerifier{}).WithUserStore(users)

	seedUser(t, users, "stale-pending", core.UserPending, 40*24*time.Hour)
	seedUser(t, users, "fresh-pending", core.UserPending, time.Hour)
	seedUser(t, users, "stale-active", core.UserActive, 40*24*time.Hour)

	w := NewPurgePendingSignupsWorker(svc)
	job := &river.Job[PurgePendingSignupsArgs]{Args: PurgePendingSignupsArgs{RetentionDays: 30, BatchSize: 100}}
	require.NoError(t, w.Work(context.Background(), job))

	u, err := users.GetUser(context.Background(), "stale-pending")
	require.NoError(t, err)
	require.Nil(t, u, "stale pending row must be purged")

	u, err = users.GetUser(context.Background(), "fresh-pending")
	require.NoError(t, err)
	require.NotNil(t, u, "fresh pending row must survive")

	u, err = users.GetUser(context.Background(), "stale-active")
	require.NoError(t, err)
	require.NotNil(t, u, "active rows are never purged")
}

func TestPurgePendingSignupsRequiresUserStore(t *testing.T) {
	w := NewPurgePendingSignupsWorker(core.NewService(noopVerifier{}))
	job := &river.Job[PurgePendingSignupsArgs]{Args: PurgePendingSignupsArgs{}}
	require.Error(t, w.Work(context.Background(), job))
}

func TestPurgePendingSignupsUniqueOpts(t *testing.T) {
	opts := PurgePendingSignupsArgs{}.InsertOpts()
	require.True(t, opts.UniqueOpts.ByArgs)
	require.Equal(t, 24*time.Hour, opts.UniqueOpts.ByPeriod)
	require.Equal(t, "signon_purge_pending_signups", PurgePendingSignupsArgs{}.Kind())
}
