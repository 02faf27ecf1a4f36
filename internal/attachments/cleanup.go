package attachments

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

const sweepTimeout = time.Minute

// PathLister reports which attachment files are still referenced by pending posts.
type PathLister interface {
	ListAttachmentPaths(ctx context.Context) ([]string, error)
}

// referencedPaths returns the cleaned attachment paths of every stored post.
func referencedPaths(ctx context.Context, posts PathLister) (map[string]struct{}, error) {
	paths, err := posts.ListAttachmentPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list referenced attachments: %w", err)
	}
	referenced := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		referenced[filepath.Clean(p)] = struct{}{}
	}
	return referenced, nil
}

// Janitor periodically removes attachment files that no pending post references.
type Janitor struct {
	store  *Store
	posts  PathLister
	maxAge time.Duration
	now    func() time.Time
	cron   *cron.Cron
}

// NewJanitor creates a janitor. Files younger than maxAge are never removed,
// so a submission that is still being written is left alone.
func NewJanitor(store *Store, posts PathLister, maxAge time.Duration) *Janitor {
	return &Janitor{
		store:  store,
		posts:  posts,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Start schedules Sweep with a cron spec such as "@hourly" or "0 */6 * * *".
func (j *Janitor) Start(schedule string) error {
	log.Println("Initializing attachment janitor...")
	j.cron = cron.New()
	_, err := j.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		removed, err := j.Sweep(ctx)
		if err != nil {
			log.Printf("[Janitor] Sweep failed: %v", err)
			return
		}
		if removed > 0 {
			log.Printf("[Janitor] Removed %d orphaned attachment(s)", removed)
		}
	})
	if err != nil {
		return fmt.Errorf("could not schedule attachment sweep %q: %w", schedule, err)
	}
	j.cron.Start()
	log.Printf("Attachment sweep scheduled (%s).", schedule)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
		log.Println("Attachment janitor stopped.")
	}
}

// Sweep removes orphaned files older than maxAge and returns how many were removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	referenced, err := referencedPaths(ctx, j.posts)
	if err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(j.store.Dir())
	if err != nil {
		return 0, fmt.Errorf("failed to read attachment directory: %w", err)
	}

	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(j.store.Dir(), entry.Name())
		if _, ok := referenced[filepath.Clean(path)]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Printf("[Janitor] Failed to stat %s: %v", path, err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := j.store.Remove(path); err != nil {
			log.Printf("[Janitor] %v", err)
			continue
		}
		removed++
	}
	return removed, nil
}
