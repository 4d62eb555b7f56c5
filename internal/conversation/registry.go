// Package conversation owns creation and lookup of buyer/seller conversations.
// There is at most one conversation per participant pair and product; the
// store's unique index on the conversation key is what guarantees it.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bazaar/backend/internal/apperr"
	"bazaar/backend/internal/models"
	"bazaar/backend/internal/storage"
	"bazaar/backend/pkg/logger"
	"bazaar/backend/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store is the part of storage the registry needs.
type Store interface {
	storage.ConversationStore
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
}

// UnreadCounter computes a fresh unread count. message.Ledger implements it.
type UnreadCounter interface {
	UnreadCountFor(ctx context.Context, conversationID, userID string) (int64, error)
}

type Registry struct {
	store       Store
	unread      UnreadCounter
	log         *logger.Logger
	pageSize    int
	concurrency int

	now   func() time.Time
	newID func() string
}

// Option configures a Registry.
type Option func(*Registry)

func WithPageSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithConcurrency bounds the unread-count fan-out in List.
func WithConcurrency(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) { r.newID = newID }
}

func NewRegistry(store Store, unread UnreadCounter, log *logger.Logger, opts ...Option) *Registry {
	r := &Registry{
		store:       store,
		unread:      unread,
		log:         log,
		pageSize:    50,
		concurrency: 8,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartOrGet returns the conversation between callerID and counterpartID
// about productID, creating it on first contact. Concurrent calls for the
// same pair and product, in either order, all return the same conversation.
func (r *Registry) StartOrGet(ctx context.Context, callerID, counterpartID, productID string) (*models.ConversationView, error) {
	if callerID == "" || counterpartID == "" || productID == "" {
		return nil, apperr.Newf(apperr.ErrInvalidInput, "caller, counterpart and product are required")
	}
	if callerID == counterpartID {
		return nil, apperr.ErrInvalidParticipants
	}

	key := models.ConversationKey(callerID, counterpartID, productID)
	conv, err := r.store.FindConversationByKey(ctx, key)
	if err == nil {
		return r.view(ctx, conv)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	if _, err := r.store.GetProductByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	if _, err := r.store.GetUserByID(ctx, counterpartID); err != nil {
		return nil, fmt.Errorf("user %s: %w", counterpartID, err)
	}

	conv = models.NewConversation(r.newID(), callerID, counterpartID, productID, r.now())
	err = r.store.CreateConversation(ctx, conv)
	switch {
	case err == nil:
		metrics.ConversationsCreated.Inc()
		r.log.Info("conversation created",
			zap.String("conversation_id", conv.ID),
			zap.String("product_id", productID))
		return r.view(ctx, conv)
	case errors.Is(err, apperr.ErrStoreConflict):
		// Інша транзакція встигла першою: беремо її запис, рівно один раз.
		metrics.ConversationKeyConflicts.Inc()
		winner, refetchErr := r.store.FindConversationByKey(ctx, key)
		if refetchErr != nil {
			return nil, fmt.Errorf("conversation %s vanished after key conflict: %w", key, refetchErr)
		}
		return r.view(ctx, winner)
	default:
		return nil, err
	}
}

// List returns the caller's active conversations, newest activity first,
// each with an unread count computed at request time.
func (r *Registry) List(ctx context.Context, userID string) ([]models.ConversationView, error) {
	convs, err := r.store.ListConversationsForUser(ctx, userID, r.pageSize)
	if err != nil {
		return nil, err
	}

	views, err := r.views(ctx, convs)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range views {
		g.Go(func() error {
			n, err := r.unread.UnreadCountFor(gctx, views[i].ID, userID)
			if err != nil {
				return err
			}
			views[i].UnreadCount = &n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// Get returns one conversation the caller participates in.
func (r *Registry) Get(ctx context.Context, conversationID, userID string) (*models.ConversationView, error) {
	conv, err := r.participantConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	return r.view(ctx, conv)
}

// Archive hides the conversation for both participants. It is never deleted;
// a new message brings it back.
func (r *Registry) Archive(ctx context.Context, conversationID, userID string) error {
	if _, err := r.participantConversation(ctx, conversationID, userID); err != nil {
		return err
	}
	return r.store.DeactivateConversation(ctx, conversationID)
}

func (r *Registry) participantConversation(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	conv, err := r.store.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, apperr.ErrForbidden
	}
	return conv, nil
}

func (r *Registry) view(ctx context.Context, conv *models.Conversation) (*models.ConversationView, error) {
	views, err := r.views(ctx, []models.Conversation{*conv})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// views resolves participant and product summaries for display. Users are
// fetched in one batch; products one by one, and a missing or removed
// listing simply leaves the product summary empty.
func (r *Registry) views(ctx context.Context, convs []models.Conversation) ([]models.ConversationView, error) {
	var ids []string
	seen := make(map[string]bool)
	for _, c := range convs {
		for _, p := range c.Participants {
			if !seen[p] {
				seen[p] = true
				ids = append(ids, p)
			}
		}
	}
	users, err := r.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.UserSummary, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Summary()
	}

	products := make(map[string]*models.ProductSummary)
	out := make([]models.ConversationView, 0, len(convs))
	for _, c := range convs {
		summary, ok := products[c.ProductID]
		if !ok {
			summary, err = r.productSummary(ctx, c.ProductID)
			if err != nil {
				return nil, err
			}
			products[c.ProductID] = summary
		}

		participants := make([]models.UserSummary, 0, len(c.Participants))
		for _, p := range c.Participants {
			if s, ok := byID[p]; ok {
				participants = append(participants, s)
			} else {
				participants = append(participants, models.UserSummary{ID: p})
			}
		}
		out = append(out, models.ConversationView{
			Conversation:         c,
			ParticipantSummaries: participants,
			Product:              summary,
		})
	}
	return out, nil
}

func (r *Registry) productSummary(ctx context.Context, productID string) (*models.ProductSummary, error) {
	p, err := r.store.GetProductByID(ctx, productID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Status == models.ProductRemoved {
		return nil, nil
	}
	s := p.Summary()
	return &s, nil
}
