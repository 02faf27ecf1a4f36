package attachments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"postsuggest-bot/internal/database/models"
	"postsuggest-bot/pkg/telegoapi"

	"github.com/google/uuid"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// FetchFunc downloads the content behind a Telegram file URL.
type FetchFunc func(url string) ([]byte, error)

// Store keeps submitted media in a local directory until a moderation decision is made.
type Store struct {
	dir   string
	fetch FetchFunc
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, fetch: tu.DownloadFile}
}

// Dir returns the directory holding the attachments.
func (s *Store) Dir() string {
	return s.dir
}

// Reset creates the directory if needed and removes files left over from a previous run.
// Files still referenced by stored posts are kept so their review messages stay usable.
// Failing to remove a single file is logged and does not abort the reset.
func (s *Store) Reset(ctx context.Context, posts PathLister) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create attachment directory %s: %w", s.dir, err)
	}

	referenced, err := referencedPaths(ctx, posts)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read attachment directory %s: %w", s.dir, err)
	}
	removed, kept := 0, 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if _, ok := referenced[filepath.Clean(path)]; ok {
			kept++
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Printf("[Attachments] Failed to remove %s: %v", path, err)
			continue
		}
		removed++
	}
	if removed > 0 || kept > 0 {
		log.Printf("[Attachments] Removed %d leftover file(s) from %s, kept %d pending", removed, s.dir, kept)
	}
	return nil
}

// Download fetches a Telegram file and stores it under a random name with the media extension.
// It returns the path of the stored file.
func (s *Store) Download(ctx context.Context, bot telegoapi.BotAPI, fileID string, mediaType models.MediaType) (string, error) {
	file, err := bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("failed to get file %s: %w", fileID, err)
	}
	if file.FilePath == "" {
		return "", fmt.Errorf("file %s has no download path", fileID)
	}

	data, err := s.fetch(bot.FileDownloadURL(file.FilePath))
	if err != nil {
		return "", fmt.Errorf("failed to download file %s: %w", fileID, err)
	}

	path := filepath.Join(s.dir, uuid.NewString()+"."+mediaType.Extension())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write attachment %s: %w", path, err)
	}
	return path, nil
}

// Open opens a stored attachment for upload.
func (s *Store) Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open attachment %s: %w", path, err)
	}
	return f, nil
}

// Remove deletes a stored attachment. A missing file is not an error.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove attachment %s: %w", path, err)
	}
	return nil
}
