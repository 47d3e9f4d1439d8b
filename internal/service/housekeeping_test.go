package service_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deafco/sonicsuite/internal/domain"
	"github.com/deafco/sonicsuite/internal/service"
	"github.com/deafco/sonicsuite/internal/store/drivers/sqlite"
)

func TestHousekeepingPrunesLedgerAndStaleTokens(t *testing.T) {
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	ctx := context.Background()

	require.NoError(t, st.ConsumedCodes().MarkCodeConsumed(ctx, domain.ConsumedCode{
		CodeHash:   "ancient",
		UserID:     "user-1",
		ConsumedAt: time.Now().Add(-48 * time.Hour),
	}))
	require.NoError(t, st.ConsumedCodes().MarkCodeConsumed(ctx, domain.ConsumedCode{
		CodeHash:   "recent",
		UserID:     "user-1",
		ConsumedAt: time.Now(),
	}))

	hk := service.NewHousekeepingService(st, slog.New(slog.DiscardHandler), time.Hour)
	hk.Start()
	hk.Stop() // the startup cleanup has run by the time Stop returns

	gone, err := st.ConsumedCodes().IsCodeConsumed(ctx, "ancient")
	require.NoError(t, err)
	require.False(t, gone)

	kept, err := st.ConsumedCodes().IsCodeConsumed(ctx, "recent")
	require.NoError(t, err)
	require.True(t, kept)
}
