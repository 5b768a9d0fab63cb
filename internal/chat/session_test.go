package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/relocation/internal/cache"
	"github.com/neexbeast/relocation/internal/chat"
	"github.com/neexbeast/relocation/internal/view"
	"github.com/neexbeast/relocation/internal/voice"
)

func newRedisSessions(t *testing.T) (*chat.SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return chat.NewSessionStore(cache.NewRedisStore(client)), mr
}

func TestSessionStore_CreateAndGet(t *testing.T) {
	sessions, _ := newRedisSessions(t)
	ctx := context.Background()

	st, err := sessions.Create(ctx)
	require.NoError(t, err)
	_, err = uuid.Parse(st.ID)
	require.NoError(t, err)
	assert.Equal(t, voice.StatusIdle, st.VoiceStatus)
	assert.False(t, st.UpdatedAt.IsZero())

	got, err := sessions.Get(ctx, st.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, st.ID, got.ID)
	assert.Nil(t, got.CurrentView)
}

func TestSessionStore_SaveRoundTripsView(t *testing.T) {
	sessions := chat.NewSessionStore(cache.NewMemoryStore(time.Minute))
	ctx := context.Background()

	st, err := sessions.Create(ctx)
	require.NoError(t, err)

	st.CurrentView = &view.View{
		Title: "Portugal",
		Blocks: []view.Block{
			view.KPIBlock{Label: "Visa Options", Value: "2 available"},
			view.CostChartBlock{Title: "Monthly", Currency: "EUR", Items: []view.CostItem{{Label: "Groceries", Amount: 300, Currency: "EUR"}}},
		},
	}
	st.Preferences.Budget = "2000"
	st.VoiceStatus = voice.StatusConnected
	require.NoError(t, sessions.Save(ctx, st))

	got, err := sessions.Get(ctx, st.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *st.CurrentView, *got.CurrentView)
	assert.Equal(t, "2000", got.Preferences.Budget)
	assert.Equal(t, voice.StatusConnected, got.VoiceStatus)
}

func TestSessionStore_UnknownOrMalformedID(t *testing.T) {
	sessions, _ := newRedisSessions(t)
	ctx := context.Background()

	for _, id := range []string{"", "not-a-uuid", uuid.NewString()} {
		got, err := sessions.Get(ctx, id)
		require.NoError(t, err, id)
		assert.Nil(t, got, id)
	}
}

func TestSessionStore_Expires(t *testing.T) {
	sessions, mr := newRedisSessions(t)
	ctx := context.Background()

	st, err := sessions.Create(ctx)
	require.NoError(t, err)

	mr.FastForward(chat.SessionTTL + time.Minute)

	got, err := sessions.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
