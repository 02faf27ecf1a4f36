package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"postsuggest-bot/internal/database/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection       = "users"
	postsCollection       = "posts"
	settingsCollection    = "settings"
	postLogsCollection    = "post_logs"
	userActionsCollection = "user_actions"
	countersCollection    = "counters"
)

// MongoStore implements Store using MongoDB.
// Post IDs come from a counter document so callback data stays numeric.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore wraps an already connected database.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{client: client, db: db}
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	log.Println("Disconnected from MongoDB.")
	return nil
}

// --- Users ---

// GetUser retrieves a user by Telegram ID.
func (s *MongoStore) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"user_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user %d: %w", userID, err)
	}
	return &user, nil
}

// EnsureUser upserts the user, refreshing names and keeping flags of existing users.
func (s *MongoStore) EnsureUser(ctx context.Context, user models.User) (*models.User, error) {
	joinDate := user.JoinDate
	if joinDate.IsZero() {
		joinDate = time.Now()
	}
	update := bson.M{
		"$set": bson.M{
			"username":   user.Username,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		},
		"$setOnInsert": bson.M{
			"user_id":   user.UserID,
			"is_admin":  user.IsAdmin,
			"is_banned": user.IsBanned,
			"join_date": joinDate,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.User
	err := s.db.Collection(usersCollection).FindOneAndUpdate(ctx, bson.M{"user_id": user.UserID}, update, opts).Decode(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user %d: %w", user.UserID, err)
	}
	return &stored, nil
}

// SetBanned sets the ban flag of an existing user.
func (s *MongoStore) SetBanned(ctx context.Context, userID int64, banned bool) error {
	result, err := s.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"is_banned": banned}},
	)
	if err != nil {
		return fmt.Errorf("failed to set ban flag for user %d: %w", userID, err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListAdmins returns every user with the admin flag, ordered by ID.
func (s *MongoStore) ListAdmins(ctx context.Context) ([]models.User, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}})
	cursor, err := s.db.Collection(usersCollection).Find(ctx, bson.M{"is_admin": true}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find admins: %w", err)
	}
	defer cursor.Close(ctx)

	var admins []models.User
	if err = cursor.All(ctx, &admins); err != nil {
		return nil, fmt.Errorf("failed to decode admins: %w", err)
	}
	return admins, nil
}

// CountAdmins returns the number of admins.
func (s *MongoStore) CountAdmins(ctx context.Context) (int64, error) {
	count, err := s.db.Collection(usersCollection).CountDocuments(ctx, bson.M{"is_admin": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}

// --- Posts ---

// nextSequence atomically increments and returns the named counter.
func (s *MongoStore) nextSequence(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %q: %w", name, err)
	}
	return counter.Seq, nil
}

// CreatePost inserts a new pending post with the next numeric ID.
func (s *MongoStore) CreatePost(ctx context.Context, post *models.Post) error {
	id, err := s.nextSequence(ctx, postsCollection)
	if err != nil {
		return err
	}
	post.PostID = id
	if post.PostDate.IsZero() {
		post.PostDate = time.Now()
	}
	if _, err := s.db.Collection(postsCollection).InsertOne(ctx, post); err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// GetPost retrieves a post by ID.
func (s *MongoStore) GetPost(ctx context.Context, postID int64) (*models.Post, error) {
	var post models.Post
	err := s.db.Collection(postsCollection).FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to find post %d: %w", postID, err)
	}
	return &post, nil
}

// MarkPublished flags a post as already sent to the channel.
func (s *MongoStore) MarkPublished(ctx context.Context, postID int64) error {
	result, err := s.db.Collection(postsCollection).UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{"$set": bson.M{"is_published": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark post %d published: %w", postID, err)
	}
	if result.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// DeletePost removes a post by ID.
func (s *MongoStore) DeletePost(ctx context.Context, postID int64) error {
	result, err := s.db.Collection(postsCollection).DeleteOne(ctx, bson.M{"_id": postID})
	if err != nil {
		return fmt.Errorf("failed to delete post %d: %w", postID, err)
	}
	if result.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// CountPosts returns the number of posts awaiting a decision.
func (s *MongoStore) CountPosts(ctx context.Context) (int64, error) {
	count, err := s.db.Collection(postsCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// ListAttachmentPaths returns the attachment path of every stored post.
func (s *MongoStore) ListAttachmentPaths(ctx context.Context) ([]string, error) {
	values, err := s.db.Collection(postsCollection).Distinct(ctx, "attachment_path", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list attachment paths: %w", err)
	}
	paths := make([]string, 0, len(values))
	for _, v := range values {
		if path, ok := v.(string); ok {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// --- Settings ---

// GetSettings returns the settings document or ErrSettingsNotFound.
func (s *MongoStore) GetSettings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	err := s.db.Collection(settingsCollection).FindOne(ctx, bson.M{"_id": models.SettingsID}).Decode(&settings)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to find settings: %w", err)
	}
	return &settings, nil
}

// ConfigureChannel upserts the settings document and grants admin to the initializer.
// The two writes are not transactional: standalone servers do not support transactions.
func (s *MongoStore) ConfigureChannel(ctx context.Context, channel string, initializer models.User) (*models.Settings, error) {
	_, err := s.db.Collection(settingsCollection).UpdateOne(ctx,
		bson.M{"_id": models.SettingsID},
		bson.M{
			"$set":         bson.M{"initialized": true, "target_channel": channel},
			"$setOnInsert": bson.M{"initializer_id": initializer.UserID},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert settings: %w", err)
	}

	joinDate := initializer.JoinDate
	if joinDate.IsZero() {
		joinDate = time.Now()
	}
	_, err = s.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"user_id": initializer.UserID},
		bson.M{
			"$set": bson.M{
				"is_admin":   true,
				"username":   initializer.Username,
				"first_name": initializer.FirstName,
				"last_name":  initializer.LastName,
			},
			"$setOnInsert": bson.M{
				"user_id":   initializer.UserID,
				"is_banned": false,
				"join_date": joinDate,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to grant admin to user %d: %w", initializer.UserID, err)
	}

	return s.GetSettings(ctx)
}

// --- Logs ---

// LogModeration writes a moderation decision to post_logs.
func (s *MongoStore) LogModeration(ctx context.Context, entry models.PostLog) error {
	if entry.DecidedAt.IsZero() {
		entry.DecidedAt = time.Now()
	}
	if _, err := s.db.Collection(postLogsCollection).InsertOne(ctx, entry); err != nil {
		wrappedErr := fmt.Errorf("failed to insert post log into collection '%s': %w", postLogsCollection, err)
		log.Printf("%v", wrappedErr)
		return wrappedErr
	}
	return nil
}

// LogUserAction writes a user action log entry to the database.
func (s *MongoStore) LogUserAction(ctx context.Context, userID int64, action string, details map[string]interface{}) error {
	_, err := s.db.Collection(userActionsCollection).InsertOne(ctx, models.UserAction{
		UserID:  userID,
		Action:  action,
		Details: details,
		Time:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to insert user action log for user %d: %w", userID, err)
	}
	return nil
}
