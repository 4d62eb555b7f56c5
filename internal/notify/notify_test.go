package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"bazaar/backend/internal/apperr"
	"bazaar/backend/internal/models"
	"bazaar/backend/internal/notify"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n notify.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func sample() notify.Notification {
	return notify.Notification{
		ID:        "n1",
		UserID:    "u1",
		Kind:      notify.KindWarning,
		Title:     "Account warning",
		Body:      "You have received a warning",
		CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFanout_DeliversToAllChannelsAndJoinsErrors(t *testing.T) {
	// Arrange
	ctx := context.Background()
	n := sample()
	failing := new(MockNotifier)
	healthy := new(MockNotifier)
	failing.On("Notify", ctx, n).Return(errors.New("boom"))
	healthy.On("Notify", ctx, n).Return(nil)
	fan := notify.NewFanout(notify.Channel{Name: "first", Notifier: failing})
	fan.Add("second", healthy)

	// Act
	err := fan.Notify(ctx, n)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first: boom")
	failing.AssertExpectations(t)
	healthy.AssertExpectations(t)
	assert.Equal(t, 2, fan.Len())
}

func TestFanout_Empty(t *testing.T) {
	assert.NoError(t, notify.NewFanout().Notify(context.Background(), sample()))
	assert.NoError(t, notify.Discard.Notify(context.Background(), sample()))
}

type sentText struct {
	chatID int64
	text   string
}

type fakeSender struct {
	sent []sentText
	err  error
}

func (f *fakeSender) SendText(chatID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentText{chatID, text})
	return nil
}

type fakeUsers map[string]models.User

func (f fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &u, nil
}

func TestTelegram_SendsToLinkedChat(t *testing.T) {
	sender := &fakeSender{}
	tg := notify.NewTelegram(sender, fakeUsers{"u1": {ID: "u1", TelegramChatID: 4242}})

	require.NoError(t, tg.Notify(context.Background(), sample()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(4242), sender.sent[0].chatID)
	assert.Contains(t, sender.sent[0].text, "Account warning")
	assert.Contains(t, sender.sent[0].text, "You have received a warning")
}

func TestTelegram_SkipsUnlinkedUser(t *testing.T) {
	sender := &fakeSender{}
	tg := notify.NewTelegram(sender, fakeUsers{"u1": {ID: "u1"}})

	require.NoError(t, tg.Notify(context.Background(), sample()))
	assert.Empty(t, sender.sent)
}

func TestTelegram_Errors(t *testing.T) {
	tg := notify.NewTelegram(&fakeSender{}, fakeUsers{})
	assert.ErrorIs(t, tg.Notify(context.Background(), sample()), apperr.ErrNotFound)

	tg = notify.NewTelegram(&fakeSender{err: errors.New("429")}, fakeUsers{"u1": {ID: "u1", TelegramChatID: 1}})
	assert.Error(t, tg.Notify(context.Background(), sample()))
}

type fakePublisher struct {
	subject string
	data    []byte
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return nil
}

func TestNATS_PublishesOnUserSubject(t *testing.T) {
	pub := &fakePublisher{}

	require.NoError(t, notify.NewNATS(pub).Notify(context.Background(), sample()))

	assert.Equal(t, "notify.u1", pub.subject)
	var got notify.Notification
	require.NoError(t, json.Unmarshal(pub.data, &got))
	assert.Equal(t, "n1", got.ID)
	assert.Equal(t, notify.KindWarning, got.Kind)
	assert.True(t, sample().CreatedAt.Equal(got.CreatedAt))
}

func TestInbox_CapsList(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	inbox := notify.NewInbox(rdb, 2)
	userID := uuid.NewString()
	t.Cleanup(func() { rdb.Del(context.Background(), "notifications:"+userID) })

	for _, id := range []string{"a", "b", "c"} {
		n := sample()
		n.ID, n.UserID = id, userID
		require.NoError(t, inbox.Notify(ctx, n))
	}

	got, err := inbox.List(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}
