// Package drafts persists validated post batches to disk and keeps the small
// amount of bookkeeping the editing flow needs: draft status, image paths,
// settings, and the publication history used as prompt context.
package drafts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"social_post_generator/responseparser"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"

	draftsSubdir  = "drafts"
	exportsSubdir = "publicaciones"
	imagesSubdir  = "imagenes"
	settingsFile  = "settings.json"

	dateLayout = "2006-01-02"
)

// Draft is one stored post: the validated record plus the bookkeeping added
// outside the parsing core.
type Draft struct {
	responseparser.Post
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
	ImagePath string    `json:"image_path"`
}

// Settings are the user-tunable knobs stored next to the drafts.
type Settings struct {
	PostsPerDay   int `json:"posts_per_day"`
	CleanupMonths int `json:"cleanup_months"`
}

func defaultSettings() Settings {
	return Settings{PostsPerDay: 3, CleanupMonths: 4}
}

// Store manages the data directory layout. One instance per directory.
type Store struct {
	dir    string
	logger *logrus.Logger
}

// NewStore creates the directory layout under dir and seeds the settings file
// on first use.
func NewStore(dir string, logger *logrus.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("data directory is required")
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	for _, sub := range []string{draftsSubdir, exportsSubdir, imagesSubdir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, err
		}
	}
	s := &Store{dir: dir, logger: logger}
	if _, err := os.Stat(s.settingsPath()); errors.Is(err, os.ErrNotExist) {
		if err := s.SaveSettings(defaultSettings()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ImagesDir is where generated images belong; the image generator writes
// there so UpdateImagePath references stay inside the data directory.
func (s *Store) ImagesDir() string {
	return filepath.Join(s.dir, imagesSubdir)
}

func (s *Store) settingsPath() string {
	return filepath.Join(s.dir, settingsFile)
}

func (s *Store) draftPath(date string) string {
	return filepath.Join(s.dir, draftsSubdir, date+"_posts.json")
}

// SaveBatch stores the accepted posts of a batch as drafts for the given
// date, overwriting any previous drafts for that date. It returns the file
// path written.
func (s *Store) SaveBatch(batch *responseparser.Batch, date string) (string, error) {
	if batch == nil || len(batch.Posts) == 0 {
		return "", errors.New("batch has no posts to save")
	}
	if date == "" {
		date = batch.Posts[0].Date
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return "", fmt.Errorf("invalid draft date %q: %w", date, err)
	}

	now := time.Now().UTC()
	records := make([]Draft, 0, len(batch.Posts))
	for _, p := range batch.Posts {
		records = append(records, Draft{
			Post:      p,
			CreatedAt: now,
			Status:    StatusDraft,
		})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", err
	}
	path := s.draftPath(date)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	s.logger.WithFields(logrus.Fields{"date": date, "posts": len(records)}).Info("drafts saved")
	return path, nil
}

// LoadDrafts reads the drafts stored for a date.
func (s *Store) LoadDrafts(date string) ([]Draft, error) {
	data, err := os.ReadFile(s.draftPath(date))
	if err != nil {
		return nil, err
	}
	var records []Draft
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("draft file for %s is corrupt: %w", date, err)
	}
	return records, nil
}

// UpdateImagePath sets the image path of one stored draft in place, leaving
// the rest of the file untouched.
func (s *Store) UpdateImagePath(date string, index int, imagePath string) error {
	path := s.draftPath(date)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !gjson.GetBytes(data, fmt.Sprintf("%d", index)).Exists() {
		return fmt.Errorf("no draft at index %d for %s", index, date)
	}
	out, err := sjson.SetBytes(data, fmt.Sprintf("%d.image_path", index), imagePath)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// MarkPublished flips one draft's status.
func (s *Store) MarkPublished(date string, index int) error {
	path := s.draftPath(date)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !gjson.GetBytes(data, fmt.Sprintf("%d", index)).Exists() {
		return fmt.Errorf("no draft at index %d for %s", index, date)
	}
	out, err := sjson.SetBytes(data, fmt.Sprintf("%d.status", index), StatusPublished)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// ListDates returns the dates that have stored drafts, newest first.
func (s *Store) ListDates() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, draftsSubdir))
	if err != nil {
		return nil, err
	}
	var dates []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, "_posts.json") {
			continue
		}
		date := strings.TrimSuffix(name, "_posts.json")
		if _, err := time.Parse(dateLayout, date); err != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// PastTitles collects titles from the most recent draft files, newest first,
// for use as do-not-repeat context in prompts.
func (s *Store) PastTitles(limit int) ([]string, error) {
	dates, err := s.ListDates()
	if err != nil {
		return nil, err
	}
	var titles []string
	for _, date := range dates {
		data, err := os.ReadFile(s.draftPath(date))
		if err != nil {
			return nil, err
		}
		for _, r := range gjson.GetBytes(data, "#.titulo").Array() {
			titles = append(titles, r.String())
			if limit > 0 && len(titles) >= limit {
				return titles, nil
			}
		}
	}
	return titles, nil
}

// ExportCSV writes the drafts for a date as a CSV next to the JSON, for the
// spreadsheet-based review flow. Returns the file path.
func (s *Store) ExportCSV(date string) (string, error) {
	records, err := s.LoadDrafts(date)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, exportsSubdir, date+"_posts.csv")
	if err := writeCSV(path, records); err != nil {
		return "", err
	}
	s.logger.WithFields(logrus.Fields{"date": date, "path": path}).Info("csv exported")
	return path, nil
}

// CleanupOlderThan removes draft files older than the given number of months
// and reports how many were deleted.
func (s *Store) CleanupOlderThan(months int) (int, error) {
	if months <= 0 {
		return 0, errors.New("months must be positive")
	}
	dates, err := s.ListDates()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().AddDate(0, -months, 0)
	removed := 0
	for _, date := range dates {
		d, err := time.Parse(dateLayout, date)
		if err != nil {
			continue
		}
		if d.Before(cutoff) {
			if err := os.Remove(s.draftPath(date)); err != nil {
				return removed, err
			}
			removed++
		}
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Info("old drafts cleaned up")
	}
	return removed, nil
}

// Settings reads the settings file, falling back to defaults for missing
// keys.
func (s *Store) Settings() (Settings, error) {
	data, err := os.ReadFile(s.settingsPath())
	if err != nil {
		return Settings{}, err
	}
	out := defaultSettings()
	if v := gjson.GetBytes(data, "posts_per_day"); v.Exists() {
		out.PostsPerDay = int(v.Int())
	}
	if v := gjson.GetBytes(data, "cleanup_months"); v.Exists() {
		out.CleanupMonths = int(v.Int())
	}
	return out, nil
}

// SaveSettings overwrites the settings file.
func (s *Store) SaveSettings(settings Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.settingsPath(), data, 0o644)
}
