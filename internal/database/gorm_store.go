package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"postsuggest-bot/internal/database/models"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore implements Store on top of a relational database through gorm.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// OpenSQLite opens (or creates) a SQLite database file.
func OpenSQLite(dsn string, debug bool) (*GormStore, error) {
	return NewGormStore(sqlite.Open(dsn), debug)
}

// OpenPostgres connects to PostgreSQL using a libpq-style or URL DSN.
func OpenPostgres(dsn string, debug bool) (*GormStore, error) {
	return NewGormStore(postgres.Open(dsn), debug)
}

// NewGormStore opens the database with the given dialector and migrates the schema.
func NewGormStore(dialector gorm.Dialector, debug bool) (*GormStore, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Settings{},
		&models.PostLog{},
		&models.UserAction{},
	); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}
	log.Printf("Database ready (%s)", dialector.Name())

	return &GormStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// --- Users ---

// GetUser retrieves a user by Telegram ID.
func (s *GormStore) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return &user, nil
}

// EnsureUser inserts the user if missing, otherwise refreshes username and names.
func (s *GormStore) EnsureUser(ctx context.Context, user models.User) (*models.User, error) {
	var stored models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", user.UserID).First(&stored).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if user.JoinDate.IsZero() {
				user.JoinDate = time.Now()
			}
			stored = user
			return tx.Create(&stored).Error
		}
		if err != nil {
			return err
		}

		stored.Username = user.Username
		stored.FirstName = user.FirstName
		stored.LastName = user.LastName
		return tx.Model(&models.User{}).Where("user_id = ?", user.UserID).Updates(map[string]interface{}{
			"username":   user.Username,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user %d: %w", user.UserID, err)
	}
	return &stored, nil
}

// SetBanned sets the ban flag of an existing user.
func (s *GormStore) SetBanned(ctx context.Context, userID int64, banned bool) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("is_banned", banned).Error
	if err != nil {
		return fmt.Errorf("failed to set ban flag for user %d: %w", userID, err)
	}
	return nil
}

// ListAdmins returns every user with the admin flag, ordered by ID.
func (s *GormStore) ListAdmins(ctx context.Context) ([]models.User, error) {
	var admins []models.User
	err := s.db.WithContext(ctx).Where("is_admin = ?", true).Order("user_id").Find(&admins).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return admins, nil
}

// CountAdmins returns the number of admins.
func (s *GormStore) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("is_admin = ?", true).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}

// --- Posts ---

// CreatePost inserts a new pending post.
func (s *GormStore) CreatePost(ctx context.Context, post *models.Post) error {
	if post.PostDate.IsZero() {
		post.PostDate = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// GetPost retrieves a post by ID.
func (s *GormStore) GetPost(ctx context.Context, postID int64) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Where("post_id = ?", postID).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post %d: %w", postID, err)
	}
	return &post, nil
}

// MarkPublished flags a post as already sent to the channel.
func (s *GormStore) MarkPublished(ctx context.Context, postID int64) error {
	result := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("post_id = ?", postID).
		Update("is_published", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark post %d published: %w", postID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// DeletePost removes a post by ID.
func (s *GormStore) DeletePost(ctx context.Context, postID int64) error {
	result := s.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Post{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete post %d: %w", postID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// CountPosts returns the number of posts awaiting a decision.
func (s *GormStore) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// ListAttachmentPaths returns the attachment path of every stored post.
func (s *GormStore) ListAttachmentPaths(ctx context.Context) ([]string, error) {
	var paths []string
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Pluck("attachment_path", &paths).Error; err != nil {
		return nil, fmt.Errorf("failed to list attachment paths: %w", err)
	}
	return paths, nil
}

// --- Settings ---

// GetSettings returns the settings row or ErrSettingsNotFound.
func (s *GormStore) GetSettings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	err := s.db.WithContext(ctx).Where("id = ?", models.SettingsID).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &settings, nil
}

// ConfigureChannel upserts the settings row and grants admin to the initializer in one transaction.
func (s *GormStore) ConfigureChannel(ctx context.Context, channel string, initializer models.User) (*models.Settings, error) {
	var settings models.Settings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ?", models.SettingsID).First(&settings).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			settings = models.Settings{
				ID:            models.SettingsID,
				Initialized:   true,
				TargetChannel: channel,
				InitializerID: initializer.UserID,
			}
			if err := tx.Create(&settings).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			settings.TargetChannel = channel
			settings.Initialized = true
			if err := tx.Save(&settings).Error; err != nil {
				return err
			}
		}

		var user models.User
		err = tx.Where("user_id = ?", initializer.UserID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			initializer.IsAdmin = true
			if initializer.JoinDate.IsZero() {
				initializer.JoinDate = time.Now()
			}
			return tx.Create(&initializer).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("user_id = ?", initializer.UserID).Update("is_admin", true).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure channel: %w", err)
	}
	return &settings, nil
}

// --- Logs ---

// LogModeration writes a moderation decision to post_logs.
func (s *GormStore) LogModeration(ctx context.Context, entry models.PostLog) error {
	if entry.DecidedAt.IsZero() {
		entry.DecidedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to insert post log for post %d: %w", entry.PostID, err)
	}
	return nil
}

// LogUserAction writes a user action log entry to the database.
func (s *GormStore) LogUserAction(ctx context.Context, userID int64, action string, details map[string]interface{}) error {
	entry := models.UserAction{
		UserID:  userID,
		Action:  action,
		Details: details,
		Time:    time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to insert user action log for user %d: %w", userID, err)
	}
	return nil
}
