package conversation_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"bazaar/backend/internal/apperr"
	"bazaar/backend/internal/conversation"
	"bazaar/backend/internal/message"
	"bazaar/backend/internal/models"
	"bazaar/backend/internal/storage"
	"bazaar/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *storage.MemoryStore
	ledger   *message.Ledger
	registry *conversation.Registry
	clock    *clock
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	for _, u := range []models.User{
		{ID: "buyer", Name: "Buyer"},
		{ID: "seller", Name: "Seller"},
		{ID: "other", Name: "Other"},
	} {
		require.NoError(t, store.UpsertUser(ctx, &u))
	}
	require.NoError(t, store.UpsertProduct(ctx, &models.Product{ID: "bike", SellerID: "seller", Title: "Bike", Status: models.ProductActive, IsActive: true}))
	require.NoError(t, store.UpsertProduct(ctx, &models.Product{ID: "lamp", SellerID: "seller", Title: "Lamp", Status: models.ProductActive, IsActive: true}))

	clk := &clock{t: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	ledger := message.NewLedger(store, logger.NewNop(), 100)
	ledger.SetClock(clk.Now)
	registry := conversation.NewRegistry(store, ledger, logger.NewNop(), conversation.WithClock(clk.Now))
	return &fixture{store: store, ledger: ledger, registry: registry, clock: clk}
}

func TestStartOrGet_RejectsSelfConversation(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.StartOrGet(context.Background(), "buyer", "buyer", "bike")

	assert.ErrorIs(t, err, apperr.ErrInvalidParticipants)
}

func TestStartOrGet_IsIdempotentAndOrderIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.registry.StartOrGet(ctx, "buyer", "seller", "bike")
	require.NoError(t, err)
	second, err := f.registry.StartOrGet(ctx, "seller", "buyer", "bike")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "buyer-seller-bike", first.ConversationKey)
	require.NotNil(t, first.Product)
	assert.Equal(t, "Bike", first.Product.Title)
	assert.ElementsMatch(t,
		[]models.UserSummary{{ID: "buyer", Name: "Buyer"}, {ID: "seller", Name: "Seller"}},
		first.ParticipantSummaries)
}

func TestStartOrGet_ConcurrentCallsYieldOneConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 32
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "buyer", "seller"
			if i%2 == 1 {
				a, b = b, a
			}
			view, err := f.registry.StartOrGet(ctx, a, b, "bike")
			if assert.NoError(t, err) {
				ids[i] = view.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	list, err := f.registry.List(ctx, "buyer")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStartOrGet_UnknownProductOrCounterpart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.StartOrGet(ctx, "buyer", "seller", "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.registry.StartOrGet(ctx, "buyer", "nobody", "bike")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// conflictStore simulates losing the insert race to another request.
type conflictStore struct {
	*storage.MemoryStore
	mock.Mock
}

func (s *conflictStore) FindConversationByKey(ctx context.Context, key string) (*models.Conversation, error) {
	args := s.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (s *conflictStore) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	return s.Called(ctx, conv).Error(0)
}

func TestStartOrGet_RefetchesOnceAfterKeyConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	winner := models.NewConversation("winner-id", "buyer", "seller", "bike", time.Now())
	store := &conflictStore{MemoryStore: f.store}
	store.On("FindConversationByKey", ctx, "buyer-seller-bike").Return(nil, apperr.ErrNotFound).Once()
	store.On("CreateConversation", ctx, mock.AnythingOfType("*models.Conversation")).Return(apperr.ErrStoreConflict).Once()
	store.On("FindConversationByKey", ctx, "buyer-seller-bike").Return(winner, nil).Once()
	registry := conversation.NewRegistry(store, f.ledger, logger.NewNop())

	view, err := registry.StartOrGet(ctx, "seller", "buyer", "bike")

	require.NoError(t, err)
	assert.Equal(t, "winner-id", view.ID)
	store.AssertExpectations(t)
}

func TestStartOrGet_FailedRefetchIsFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	store := &conflictStore{MemoryStore: f.store}
	store.On("FindConversationByKey", ctx, "buyer-seller-bike").Return(nil, apperr.ErrNotFound).Twice()
	store.On("CreateConversation", ctx, mock.Anything).Return(apperr.ErrStoreConflict).Once()
	registry := conversation.NewRegistry(store, f.ledger, logger.NewNop())

	_, err := registry.StartOrGet(ctx, "buyer", "seller", "bike")

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrStoreConflict, "the conflict never leaves the registry")
	store.AssertNumberOfCalls(t, "CreateConversation", 1)
	store.AssertNumberOfCalls(t, "FindConversationByKey", 2)
}

func TestStartOrGet_RefetchKeepsStoreOutageClass(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	store := &conflictStore{MemoryStore: f.store}
	store.On("FindConversationByKey", ctx, "buyer-seller-bike").Return(nil, apperr.ErrNotFound).Once()
	store.On("CreateConversation", ctx, mock.Anything).Return(apperr.ErrStoreConflict).Once()
	store.On("FindConversationByKey", ctx, "buyer-seller-bike").
		Return(nil, fmt.Errorf("find conversation by key: %w", apperr.ErrUnavailable)).Once()
	registry := conversation.NewRegistry(store, f.ledger, logger.NewNop())

	_, err := registry.StartOrGet(ctx, "buyer", "seller", "bike")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, apperr.HTTPStatus(err))
	store.AssertExpectations(t)
}

func TestList_NewestFirstWithFreshUnreadCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike, err := f.registry.StartOrGet(ctx, "buyer", "seller", "bike")
	require.NoError(t, err)
	lamp, err := f.registry.StartOrGet(ctx, "buyer", "seller", "lamp")
	require.NoError(t, err)

	// an older conversation becomes the newest after a message
	for i := 0; i < 3; i++ {
		_, err = f.ledger.Append(ctx, bike.ID, "seller", "buyer", "still available?")
		require.NoError(t, err)
	}

	list, err := f.registry.List(ctx, "buyer")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, bike.ID, list[0].ID)
	assert.Equal(t, lamp.ID, list[1].ID)
	require.NotNil(t, list[0].UnreadCount)
	assert.EqualValues(t, 3, *list[0].UnreadCount)
	assert.EqualValues(t, 0, *list[1].UnreadCount)

	sellerView, err := f.registry.List(ctx, "seller")
	require.NoError(t, err)
	assert.EqualValues(t, 0, *sellerView[0].UnreadCount, "own messages are never unread for the sender")
}

func TestList_RemovedProductHasNoSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.registry.StartOrGet(ctx, "buyer", "seller", "bike")
	require.NoError(t, err)
	_, err = f.store.RemoveProduct(ctx, "bike")
	require.NoError(t, err)

	list, err := f.registry.List(ctx, "buyer")

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Product)
}

func TestGetAndArchive_ParticipantsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv, err := f.registry.StartOrGet(ctx, "buyer", "seller", "bike")
	require.NoError(t, err)

	_, err = f.registry.Get(ctx, conv.ID, "other")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, f.registry.Archive(ctx, conv.ID, "other"), apperr.ErrForbidden)
	assert.ErrorIs(t, f.registry.Archive(ctx, "missing", "buyer"), apperr.ErrNotFound)

	require.NoError(t, f.registry.Archive(ctx, conv.ID, "buyer"))
	list, err := f.registry.List(ctx, "seller")
	require.NoError(t, err)
	assert.Empty(t, list, "archiving hides the conversation for both sides")

	again, err := f.registry.StartOrGet(ctx, "seller", "buyer", "bike")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID, "an archived conversation is never recreated")
}
