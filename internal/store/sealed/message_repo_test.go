package sealed

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging_go/internal/domain"
	"messaging_go/internal/security"
	"messaging_go/internal/store/sqlite"
)

func newRepos(t *testing.T) (*MessageRepo, *sqlite.MessageRepo, *domain.Conversation) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "sealed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(db))

	now := time.Now().UTC()
	conv := &domain.Conversation{ParticipantA: 100, ParticipantB: 200, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, sqlite.NewConversationRepo(db).Create(context.Background(), conv))

	enc, err := security.NewContentCipher("at-rest-secret", nil)
	require.NoError(t, err)

	raw := sqlite.NewMessageRepo(db)
	return NewMessageRepo(raw, enc), raw, conv
}

func TestCreateStoresCiphertextAndReturnsPlaintext(t *testing.T) {
	ctx := context.Background()
	repo, raw, conv := newRepos(t)

	m := &domain.Message{
		ConversationID: conv.ID, SenderID: 100, ReceiverID: 200,
		Content: "hi", SentAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, m))
	assert.NotZero(t, m.ID)
	assert.Equal(t, "hi", m.Content)

	stored, err := raw.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "hi", stored.Content)
	assert.True(t, strings.HasPrefix(stored.Content, "v1."))

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Content)
}

func TestReadsDecryptListAndLatest(t *testing.T) {
	ctx := context.Background()
	repo, _, conv := newRepos(t)

	base := time.Now().UTC()
	for i, text := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Create(ctx, &domain.Message{
			ConversationID: conv.ID, SenderID: 100, ReceiverID: 200,
			Content: text, SentAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	msgs, err := repo.ListForConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "three", msgs[2].Content)

	latest, err := repo.LatestForConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "three", latest.Content)

	n, err := repo.CountUnread(ctx, conv.ID, 200)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestLatestOnEmptyConversation(t *testing.T) {
	repo, _, conv := newRepos(t)
	latest, err := repo.LatestForConversation(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestGetByIDNotFoundPassesThrough(t *testing.T) {
	repo, _, _ := newRepos(t)
	_, err := repo.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestContentFromAnotherConversationDoesNotOpen(t *testing.T) {
	ctx := context.Background()
	repo, raw, conv := newRepos(t)

	m := &domain.Message{
		ConversationID: conv.ID, SenderID: 100, ReceiverID: 200,
		Content: "secret", SentAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, m))
	stored, err := raw.GetByID(ctx, m.ID)
	require.NoError(t, err)

	stored.ConversationID = conv.ID + 1
	_, err = repo.open(stored)
	assert.ErrorIs(t, err, security.ErrUndecryptable)
}
