package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging_go/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "messaging.db"))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func newConversation(a, b int64, at time.Time) *domain.Conversation {
	return &domain.Conversation{ParticipantA: a, ParticipantB: b, CreatedAt: at, UpdatedAt: at}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, Migrate(db))
}

func TestConversationRepo_PairIsUnorderedAndUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepo(openTestDB(t))
	now := time.Now()

	c := newConversation(100, 200, now)
	require.NoError(t, repo.Create(ctx, c))
	assert.NotZero(t, c.ID)

	err := repo.Create(ctx, newConversation(200, 100, now))
	assert.ErrorIs(t, err, domain.ErrConflict)

	found, err := repo.FindByParticipants(ctx, 200, 100)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, c.ID, found.ID)
	assert.Equal(t, int64(100), found.ParticipantA)
	assert.Equal(t, int64(200), found.ParticipantB)

	missing, err := repo.FindByParticipants(ctx, 100, 300)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestConversationRepo_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepo(openTestDB(t))
	now := time.Now()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := newConversation(100, 200, now)
			if i%2 == 1 {
				c = newConversation(200, 100, now)
			}
			err := repo.Create(ctx, c)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if assert.ErrorIs(t, err, domain.ErrConflict) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 19, conflicts)

	list, err := repo.ListForUser(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestConversationRepo_ListAndTouch(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepo(openTestDB(t))
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first := newConversation(100, 200, base)
	second := newConversation(300, 100, base.Add(time.Minute))
	other := newConversation(300, 400, base)
	for _, c := range []*domain.Conversation{first, second, other} {
		require.NoError(t, repo.Create(ctx, c))
	}

	list, err := repo.ListForUser(ctx, 100)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	require.NoError(t, repo.Touch(ctx, first.ID, base.Add(time.Hour)))

	list, err = repo.ListForUser(ctx, 100)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.True(t, list[0].UpdatedAt.Equal(base.Add(time.Hour)))

	got, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMessageRepo_OrderingUnreadAndMarkRead(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	convs := NewConversationRepo(db)
	msgs := NewMessageRepo(db)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	conv := newConversation(100, 200, base)
	require.NoError(t, convs.Create(ctx, conv))

	latest, err := msgs.LatestForConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	// Inserted out of time order on purpose.
	sends := []struct {
		from, to int64
		content  string
		at       time.Time
	}{
		{100, 200, "t3", base.Add(3 * time.Second)},
		{100, 200, "t1", base.Add(1 * time.Second)},
		{200, 100, "t2", base.Add(2 * time.Second)},
	}
	ids := map[string]int64{}
	for _, s := range sends {
		m := &domain.Message{ConversationID: conv.ID, SenderID: s.from, ReceiverID: s.to, Content: s.content, SentAt: s.at}
		require.NoError(t, msgs.Create(ctx, m))
		ids[s.content] = m.ID
	}

	list, err := msgs.ListForConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "t1", list[0].Content)
	assert.Equal(t, "t2", list[1].Content)
	assert.Equal(t, "t3", list[2].Content)

	latest, err = msgs.LatestForConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "t3", latest.Content)

	unread, err := msgs.CountUnread(ctx, conv.ID, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	readAt := base.Add(time.Minute)
	ok, err := msgs.MarkRead(ctx, ids["t1"], readAt)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = msgs.MarkRead(ctx, ids["t1"], readAt.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	m, err := msgs.GetByID(ctx, ids["t1"])
	require.NoError(t, err)
	assert.True(t, m.IsRead)
	require.NotNil(t, m.ReadAt)
	assert.True(t, m.ReadAt.Equal(readAt))

	unread, err = msgs.CountUnread(ctx, conv.ID, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	_, err = msgs.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
