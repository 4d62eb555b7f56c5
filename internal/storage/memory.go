package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"bazaar/backend/internal/apperr"
	"bazaar/backend/internal/models"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// MemoryStore is an in-process Storage with the same uniqueness and
// conditional-write semantics as the database implementations.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
	keys          map[string]string // conversation_key -> id
	messages      map[string][]models.Message
	reports       map[string]reportRecord
	users         map[string]models.User
	products      map[string]models.Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*models.Conversation),
		keys:          make(map[string]string),
		messages:      make(map[string][]models.Message),
		reports:       make(map[string]reportRecord),
		users:         make(map[string]models.User),
		products:      make(map[string]models.Product),
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func copyConversation(c *models.Conversation) *models.Conversation {
	cp := *c
	cp.Participants = append(pq.StringArray(nil), c.Participants...)
	if c.LastMessageID != nil {
		id := *c.LastMessageID
		cp.LastMessageID = &id
	}
	return &cp
}

// --- conversations ---

func (m *MemoryStore) FindConversationByKey(_ context.Context, key string) (*models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.keys[key]
	if !ok {
		return nil, errors.Wrap(apperr.ErrNotFound, "find conversation by key")
	}
	return copyConversation(m.conversations[id]), nil
}

func (m *MemoryStore) CreateConversation(_ context.Context, conv *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.keys[conv.ConversationKey]; taken {
		return errors.Wrapf(apperr.ErrStoreConflict, "create conversation: key %s", conv.ConversationKey)
	}
	if _, taken := m.conversations[conv.ID]; taken {
		return errors.Wrapf(apperr.ErrStoreConflict, "create conversation: id %s", conv.ID)
	}
	m.conversations[conv.ID] = copyConversation(conv)
	m.keys[conv.ConversationKey] = conv.ID
	return nil
}

func (m *MemoryStore) GetConversationByID(_ context.Context, id string) (*models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil, errors.Wrap(apperr.ErrNotFound, "get conversation")
	}
	return copyConversation(c), nil
}

func (m *MemoryStore) ListConversationsForUser(_ context.Context, userID string, limit int) ([]models.Conversation, error) {
	m.mu.RLock()
	out := []models.Conversation{}
	for _, c := range m.conversations {
		if c.IsActive && c.HasParticipant(userID) {
			out = append(out, *copyConversation(c))
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastMessageAt.Equal(out[j].LastMessageAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) TouchConversation(_ context.Context, id, messageID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil
	}
	newer := at.After(c.LastMessageAt) ||
		(at.Equal(c.LastMessageAt) && (c.LastMessageID == nil || *c.LastMessageID < messageID))
	if !newer {
		return nil
	}
	c.LastMessageID = &messageID
	c.LastMessageAt = at
	c.IsActive = true
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) DeactivateConversation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return errors.Wrap(apperr.ErrNotFound, "deactivate conversation")
	}
	c.IsActive = false
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// --- messages ---

func (m *MemoryStore) SaveMessage(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.messages[msg.ConversationID]
	for i := range list {
		if list[i].ID == msg.ID {
			return errors.Wrapf(apperr.ErrStoreConflict, "save message %s", msg.ID)
		}
	}
	m.messages[msg.ConversationID] = append(list, *msg)
	return nil
}

func (m *MemoryStore) ListMessages(_ context.Context, conversationID string, limit int) ([]models.Message, error) {
	m.mu.RLock()
	out := append([]models.Message(nil), m.messages[conversationID]...)
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Before(&out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	if out == nil {
		out = []models.Message{}
	}
	return out, nil
}

func (m *MemoryStore) CountUnread(_ context.Context, conversationID, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, msg := range m.messages[conversationID] {
		if msg.ReceiverID == userID && !msg.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) MarkMessagesRead(_ context.Context, conversationID, userID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	list := m.messages[conversationID]
	for i := range list {
		if list[i].ReceiverID == userID && !list[i].IsRead {
			readAt := at
			list[i].IsRead = true
			list[i].ReadAt = &readAt
			n++
		}
	}
	return n, nil
}

// --- reports ---

func (m *MemoryStore) SaveReport(_ context.Context, report models.PendingReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.reports[report.ID]; taken {
		return errors.Wrapf(apperr.ErrStoreConflict, "save report %s", report.ID)
	}
	m.reports[report.ID] = newReportRecord(report)
	return nil
}

func (m *MemoryStore) GetReportByID(_ context.Context, id string) (models.Report, error) {
	m.mu.RLock()
	rec, ok := m.reports[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.Wrap(apperr.ErrNotFound, "get report")
	}
	return rec.decode()
}

func (m *MemoryStore) ListReportsByStatus(_ context.Context, status models.ReportStatus, limit int) ([]models.Report, error) {
	m.mu.RLock()
	var recs []reportRecord
	for _, rec := range m.reports {
		if rec.Status == status {
			recs = append(recs, rec)
		}
	}
	m.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID > recs[j].ID
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return decodeReports(recs)
}

func (m *MemoryStore) ResolvePendingReport(_ context.Context, id string, res models.Resolution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.reports[id]
	if !ok || !isOpen(rec.Status) {
		return errors.Wrapf(apperr.ErrAlreadyProcessed, "report %s", id)
	}
	rec.resolve(res)
	m.reports[id] = rec
	return nil
}

// --- users & products ---

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, errors.Wrap(apperr.ErrNotFound, "get user")
	}
	return &u, nil
}

func (m *MemoryStore) GetUsersByIDs(_ context.Context, ids []string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetProductByID(_ context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, errors.Wrap(apperr.ErrNotFound, "get product")
	}
	return &p, nil
}

func (m *MemoryStore) UpsertUser(_ context.Context, user *models.User) error {
	if user.ID == "" {
		_ = user.BeforeCreate(nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) UpsertProduct(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = *product
	return nil
}

// --- enforcement ---

func (m *MemoryStore) ApplyWarning(_ context.Context, userID string, maxWarnings int, reason string, suspendUntil time.Time) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, errors.Wrap(apperr.ErrNotFound, "apply warning")
	}
	next := u.Standing.WarningCount + 1
	if next >= maxWarnings {
		until := suspendUntil
		u.Standing.IsSuspended = true
		u.Standing.SuspensionReason = reason
		u.Standing.SuspensionEndDate = &until
	}
	if next > maxWarnings {
		next = maxWarnings
	}
	u.Standing.WarningCount = next
	m.users[userID] = u
	return &u, nil
}

func (m *MemoryStore) SuspendUser(_ context.Context, userID, reason string, until time.Time) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, errors.Wrap(apperr.ErrNotFound, "suspend user")
	}
	end := until
	u.Standing.IsSuspended = true
	u.Standing.SuspensionReason = reason
	u.Standing.SuspensionEndDate = &end
	m.users[userID] = u
	return &u, nil
}

func (m *MemoryStore) RemoveProduct(_ context.Context, productID string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, errors.Wrap(apperr.ErrNotFound, "remove product")
	}
	p.Status = models.ProductRemoved
	p.IsActive = false
	p.UpdatedAt = time.Now().UTC()
	m.products[productID] = p
	return &p, nil
}

func isOpen(status models.ReportStatus) bool {
	for _, st := range models.OpenStatuses() {
		if st == status {
			return true
		}
	}
	return false
}
