package storage

import (
	"context"
	"time"

	"bazaar/backend/internal/apperr"
	"bazaar/backend/internal/models"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Service is the PostgreSQL implementation of Storage.
type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// OpenPostgres connects with duplicate-key translation enabled, which
// CreateConversation relies on.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, classify(err, "open postgres")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// Migrate creates or updates every table the core uses.
func (s *Service) Migrate() error {
	// ВАЖЛИВО: усі моделі, які зберігає ядро, мають бути тут
	return s.DB.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Conversation{},
		&models.Message{},
		&reportRecord{},
	)
}

func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return classify(sqlDB.PingContext(ctx), "ping")
}

// --- conversations ---

func (s *Service) FindConversationByKey(ctx context.Context, key string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.DB.WithContext(ctx).Where("conversation_key = ?", key).First(&conv).Error
	if err != nil {
		return nil, classify(err, "find conversation by key")
	}
	return &conv, nil
}

func (s *Service) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	return classify(s.DB.WithContext(ctx).Create(conv).Error, "create conversation")
}

func (s *Service) GetConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&conv).Error; err != nil {
		return nil, classify(err, "get conversation")
	}
	return &conv, nil
}

// ListConversationsForUser повертає активні розмови користувача, найновіші першими.
func (s *Service) ListConversationsForUser(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.DB.WithContext(ctx).
		Where("? = ANY(participants)", userID).
		Where("is_active = ?", true).
		Order("last_message_at DESC").Order("id DESC").
		Limit(limit).
		Find(&convs).Error
	if err != nil {
		return nil, classify(err, "list conversations")
	}
	return convs, nil
}

func (s *Service) TouchConversation(ctx context.Context, id, messageID string, at time.Time) error {
	err := s.DB.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", id).
		Where("last_message_at < ? OR (last_message_at = ? AND (last_message_id IS NULL OR last_message_id < ?))", at, at, messageID).
		Updates(map[string]interface{}{
			"last_message_id": messageID,
			"last_message_at": at,
			"is_active":       true,
			"updated_at":      time.Now().UTC(),
		}).Error
	return classify(err, "touch conversation")
}

func (s *Service) DeactivateConversation(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return classify(res.Error, "deactivate conversation")
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(apperr.ErrNotFound, "deactivate conversation")
	}
	return nil
}

// --- messages ---

func (s *Service) SaveMessage(ctx context.Context, msg *models.Message) error {
	return classify(s.DB.WithContext(ctx).Create(msg).Error, "save message")
}

func (s *Service) ListMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	// Беремо останні limit повідомлень і повертаємо їх у хронологічному порядку
	err := s.DB.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, classify(err, "list messages")
	}
	reverse(msgs)
	return msgs, nil
}

func (s *Service) CountUnread(ctx context.Context, conversationID, userID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", conversationID, userID, false).
		Count(&n).Error
	if err != nil {
		return 0, classify(err, "count unread")
	}
	return n, nil
}

func (s *Service) MarkMessagesRead(ctx context.Context, conversationID, userID string, at time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", conversationID, userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if res.Error != nil {
		return 0, classify(res.Error, "mark messages read")
	}
	return res.RowsAffected, nil
}

// --- reports ---

func (s *Service) SaveReport(ctx context.Context, report models.PendingReport) error {
	rec := newReportRecord(report)
	return classify(s.DB.WithContext(ctx).Create(&rec).Error, "save report")
}

func (s *Service) GetReportByID(ctx context.Context, id string) (models.Report, error) {
	var rec reportRecord
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, classify(err, "get report")
	}
	return rec.decode()
}

func (s *Service) ListReportsByStatus(ctx context.Context, status models.ReportStatus, limit int) ([]models.Report, error) {
	var recs []reportRecord
	err := s.DB.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, classify(err, "list reports")
	}
	return decodeReports(recs)
}

// ResolvePendingReport оновлює скаргу лише якщо вона ще відкрита (pending
// або legacy reviewed): з двох одночасних рішень виграє тільки одне.
func (s *Service) ResolvePendingReport(ctx context.Context, id string, res models.Resolution) error {
	result := s.DB.WithContext(ctx).Model(&reportRecord{}).
		Where("id = ? AND status IN ?", id, models.OpenStatuses()).
		Updates(resolutionColumns(res))
	if result.Error != nil {
		return classify(result.Error, "resolve report")
	}
	if result.RowsAffected == 0 {
		return errors.Wrapf(apperr.ErrAlreadyProcessed, "report %s", id)
	}
	return nil
}

// --- users & products ---

func (s *Service) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, classify(err, "get user")
	}
	return &user, nil
}

func (s *Service) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, classify(err, "get users")
	}
	return users, nil
}

func (s *Service) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, classify(err, "get product")
	}
	return &product, nil
}

// UpsertUser зберігає користувача в PostgreSQL
func (s *Service) UpsertUser(ctx context.Context, user *models.User) error {
	return classify(s.DB.WithContext(ctx).Save(user).Error, "upsert user")
}

func (s *Service) UpsertProduct(ctx context.Context, product *models.Product) error {
	return classify(s.DB.WithContext(ctx).Save(product).Error, "upsert product")
}

// --- enforcement ---

const applyWarningSQL = `
UPDATE users SET
    warning_count       = LEAST(warning_count + 1, @max),
    is_suspended        = CASE WHEN warning_count + 1 >= @max THEN TRUE ELSE is_suspended END,
    suspension_reason   = CASE WHEN warning_count + 1 >= @max THEN @reason ELSE suspension_reason END,
    suspension_end_date = CASE WHEN warning_count + 1 >= @max THEN @until ELSE suspension_end_date END
WHERE id = @id
RETURNING *`

// ApplyWarning робить інкремент і можливу ескалацію одним UPDATE, тому
// паралельні попередження не губляться.
func (s *Service) ApplyWarning(ctx context.Context, userID string, maxWarnings int, reason string, suspendUntil time.Time) (*models.User, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).Raw(applyWarningSQL, map[string]interface{}{
		"id":     userID,
		"max":    maxWarnings,
		"reason": reason,
		"until":  suspendUntil,
	}).Scan(&users).Error
	if err != nil {
		return nil, classify(err, "apply warning")
	}
	if len(users) == 0 {
		return nil, errors.Wrap(apperr.ErrNotFound, "apply warning")
	}
	return &users[0], nil
}

func (s *Service) SuspendUser(ctx context.Context, userID, reason string, until time.Time) (*models.User, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).Model(&users).
		Clauses(clause.Returning{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"is_suspended":        true,
			"suspension_reason":   reason,
			"suspension_end_date": until,
		}).Error
	if err != nil {
		return nil, classify(err, "suspend user")
	}
	if len(users) == 0 {
		return nil, errors.Wrap(apperr.ErrNotFound, "suspend user")
	}
	return &users[0], nil
}

func (s *Service) RemoveProduct(ctx context.Context, productID string) (*models.Product, error) {
	var products []models.Product
	err := s.DB.WithContext(ctx).Model(&products).
		Clauses(clause.Returning{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"status":     models.ProductRemoved,
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return nil, classify(err, "remove product")
	}
	if len(products) == 0 {
		return nil, errors.Wrap(apperr.ErrNotFound, "remove product")
	}
	return &products[0], nil
}

func reverse(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
