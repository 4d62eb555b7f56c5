package storage

import (
	"context"
	"time"

	"bazaar/backend/internal/apperr"
	"bazaar/backend/internal/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colConversations = "conversations"
	colMessages      = "messages"
	colReports       = "reports"
	colUsers         = "users"
	colProducts      = "products"
)

// MongoService is the document-store implementation of Storage.
type MongoService struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// ConnectMongo opens a client and pings the primary.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoService, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, classifyMongo(err, "connect mongo")
	}
	s := &MongoService{Client: client, DB: client.Database(database)}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// EnsureIndexes creates the indexes the store relies on. The unique index on
// conversation_key is what makes CreateConversation race-safe.
func (s *MongoService) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colConversations: {
			{
				Keys:    bson.D{{Key: "conversation_key", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_conversation_key"),
			},
			{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "last_message_at", Value: -1}}},
		},
		colMessages: {
			{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "is_read", Value: 1}}},
		},
		colReports: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colProducts: {
			{Keys: bson.D{{Key: "seller_id", Value: 1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := s.DB.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return errors.Wrapf(err, "create indexes for %s", name)
		}
	}
	return nil
}

func (s *MongoService) Ping(ctx context.Context) error {
	return classifyMongo(s.Client.Ping(ctx, nil), "ping")
}

func (s *MongoService) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

func (s *MongoService) col(name string) *mongo.Collection {
	return s.DB.Collection(name)
}

func classifyMongo(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return errors.Wrap(apperr.ErrNotFound, op)
	case mongo.IsDuplicateKeyError(err):
		return errors.Wrapf(apperr.ErrStoreConflict, "%s: %v", op, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), isUnavailable(err):
		return errors.Wrapf(apperr.ErrUnavailable, "%s: %v", op, err)
	}
	return errors.Wrap(err, op)
}

// --- conversations ---

func (s *MongoService) FindConversationByKey(ctx context.Context, key string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.col(colConversations).FindOne(ctx, bson.M{"conversation_key": key}).Decode(&conv)
	if err != nil {
		return nil, classifyMongo(err, "find conversation by key")
	}
	return &conv, nil
}

func (s *MongoService) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	_, err := s.col(colConversations).InsertOne(ctx, conv)
	return classifyMongo(err, "create conversation")
}

func (s *MongoService) GetConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.col(colConversations).FindOne(ctx, bson.M{"_id": id}).Decode(&conv); err != nil {
		return nil, classifyMongo(err, "get conversation")
	}
	return &conv, nil
}

func (s *MongoService) ListConversationsForUser(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "last_message_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.col(colConversations).Find(ctx, bson.M{"participants": userID, "is_active": true}, opts)
	if err != nil {
		return nil, classifyMongo(err, "list conversations")
	}
	convs := []models.Conversation{}
	if err := cur.All(ctx, &convs); err != nil {
		return nil, classifyMongo(err, "list conversations")
	}
	return convs, nil
}

func (s *MongoService) TouchConversation(ctx context.Context, id, messageID string, at time.Time) error {
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"last_message_at": bson.M{"$lt": at}},
			bson.M{
				"last_message_at": at,
				"$or": bson.A{
					bson.M{"last_message_id": nil},
					bson.M{"last_message_id": bson.M{"$lt": messageID}},
				},
			},
		},
	}
	update := bson.M{"$set": bson.M{
		"last_message_id": messageID,
		"last_message_at": at,
		"is_active":       true,
		"updated_at":      time.Now().UTC(),
	}}
	_, err := s.col(colConversations).UpdateOne(ctx, filter, update)
	return classifyMongo(err, "touch conversation")
}

func (s *MongoService) DeactivateConversation(ctx context.Context, id string) error {
	res, err := s.col(colConversations).UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}})
	if err != nil {
		return classifyMongo(err, "deactivate conversation")
	}
	if res.MatchedCount == 0 {
		return errors.Wrap(apperr.ErrNotFound, "deactivate conversation")
	}
	return nil
}

// --- messages ---

func (s *MongoService) SaveMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.col(colMessages).InsertOne(ctx, msg)
	return classifyMongo(err, "save message")
}

func (s *MongoService) ListMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.col(colMessages).Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, classifyMongo(err, "list messages")
	}
	msgs := []models.Message{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, classifyMongo(err, "list messages")
	}
	reverse(msgs)
	return msgs, nil
}

func unreadFilter(conversationID, userID string) bson.M {
	return bson.M{"conversation_id": conversationID, "receiver_id": userID, "is_read": false}
}

func (s *MongoService) CountUnread(ctx context.Context, conversationID, userID string) (int64, error) {
	n, err := s.col(colMessages).CountDocuments(ctx, unreadFilter(conversationID, userID))
	if err != nil {
		return 0, classifyMongo(err, "count unread")
	}
	return n, nil
}

func (s *MongoService) MarkMessagesRead(ctx context.Context, conversationID, userID string, at time.Time) (int64, error) {
	res, err := s.col(colMessages).UpdateMany(ctx, unreadFilter(conversationID, userID),
		bson.M{"$set": bson.M{"is_read": true, "read_at": at}})
	if err != nil {
		return 0, classifyMongo(err, "mark messages read")
	}
	return res.ModifiedCount, nil
}

// --- reports ---

func (s *MongoService) SaveReport(ctx context.Context, report models.PendingReport) error {
	_, err := s.col(colReports).InsertOne(ctx, newReportRecord(report))
	return classifyMongo(err, "save report")
}

func (s *MongoService) GetReportByID(ctx context.Context, id string) (models.Report, error) {
	var rec reportRecord
	if err := s.col(colReports).FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		return nil, classifyMongo(err, "get report")
	}
	return rec.decode()
}

func (s *MongoService) ListReportsByStatus(ctx context.Context, status models.ReportStatus, limit int) ([]models.Report, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.col(colReports).Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, classifyMongo(err, "list reports")
	}
	var recs []reportRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, classifyMongo(err, "list reports")
	}
	return decodeReports(recs)
}

func (s *MongoService) ResolvePendingReport(ctx context.Context, id string, res models.Resolution) error {
	result, err := s.col(colReports).UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": models.OpenStatuses()}},
		bson.M{"$set": resolutionColumns(res)})
	if err != nil {
		return classifyMongo(err, "resolve report")
	}
	if result.MatchedCount == 0 {
		return errors.Wrapf(apperr.ErrAlreadyProcessed, "report %s", id)
	}
	return nil
}

// --- users & products ---

func (s *MongoService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.col(colUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, classifyMongo(err, "get user")
	}
	return &user, nil
}

func (s *MongoService) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	cur, err := s.col(colUsers).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, classifyMongo(err, "get users")
	}
	if err := cur.All(ctx, &users); err != nil {
		return nil, classifyMongo(err, "get users")
	}
	return users, nil
}

func (s *MongoService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.col(colProducts).FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, classifyMongo(err, "get product")
	}
	return &product, nil
}

func (s *MongoService) UpsertUser(ctx context.Context, user *models.User) error {
	_, err := s.col(colUsers).ReplaceOne(ctx, bson.M{"_id": user.ID}, user, options.Replace().SetUpsert(true))
	return classifyMongo(err, "upsert user")
}

func (s *MongoService) UpsertProduct(ctx context.Context, product *models.Product) error {
	_, err := s.col(colProducts).ReplaceOne(ctx, bson.M{"_id": product.ID}, product, options.Replace().SetUpsert(true))
	return classifyMongo(err, "upsert product")
}

// --- enforcement ---

// ApplyWarning uses an update pipeline so the increment and the escalation
// are evaluated against the same document version.
func (s *MongoService) ApplyWarning(ctx context.Context, userID string, maxWarnings int, reason string, suspendUntil time.Time) (*models.User, error) {
	next := bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$standing.warning_count", 0}}, 1}}
	reached := bson.M{"$gte": bson.A{next, maxWarnings}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"standing.warning_count":       bson.M{"$min": bson.A{next, maxWarnings}},
			"standing.is_suspended":        bson.M{"$cond": bson.A{reached, true, "$standing.is_suspended"}},
			"standing.suspension_reason":   bson.M{"$cond": bson.A{reached, reason, "$standing.suspension_reason"}},
			"standing.suspension_end_date": bson.M{"$cond": bson.A{reached, suspendUntil, "$standing.suspension_end_date"}},
		}}},
	}
	return s.updateUser(ctx, userID, pipeline, "apply warning")
}

func (s *MongoService) SuspendUser(ctx context.Context, userID, reason string, until time.Time) (*models.User, error) {
	update := bson.M{"$set": bson.M{
		"standing.is_suspended":        true,
		"standing.suspension_reason":   reason,
		"standing.suspension_end_date": until,
	}}
	return s.updateUser(ctx, userID, update, "suspend user")
}

func (s *MongoService) updateUser(ctx context.Context, userID string, update interface{}, op string) (*models.User, error) {
	var user models.User
	err := s.col(colUsers).FindOneAndUpdate(ctx, bson.M{"_id": userID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&user)
	if err != nil {
		return nil, classifyMongo(err, op)
	}
	return &user, nil
}

func (s *MongoService) RemoveProduct(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	err := s.col(colProducts).FindOneAndUpdate(ctx, bson.M{"_id": productID},
		bson.M{"$set": bson.M{"status": models.ProductRemoved, "is_active": false, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&product)
	if err != nil {
		return nil, classifyMongo(err, "remove product")
	}
	return &product, nil
}
