// Package manual keeps hand-imported Year in Review records that override
// live fetches. Files are plain record JSON named yir_<year>_<steamid>.json
// so an operator can drop one in place without the import tool.
package manual

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/briangreenhill/steamstats/internal/domain"
)

// Store reads and writes override files under a directory.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("manual dir is required")
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// Key is the override name for a year and steamid.
func Key(year int, steamID string) string {
	return fmt.Sprintf("yir_%d_%s", year, steamID)
}

func (s *Store) path(year int, steamID string) string {
	return filepath.Join(s.dir, Key(year, steamID)+".json")
}

// Lookup returns the override for year and steamID. A missing file, or
// one that does not hold a JSON object, is not an override.
func (s *Store) Lookup(year int, steamID string) (*domain.YearInReview, bool) {
	data, err := os.ReadFile(s.path(year, steamID))
	if err != nil {
		return nil, false
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, false
	}
	var rec domain.YearInReview
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false
	}
	if rec.Timeline == nil {
		rec.Timeline = []domain.MonthEntry{}
	}
	return &rec, true
}

// Write stores rec as the override for year and steamID and returns the
// file path.
func (s *Store) Write(year int, steamID string, rec *domain.YearInReview) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create manual dir: %w", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}

	path := s.path(year, steamID)
	tmp := path + ".tmp." + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write override: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write override: %w", err)
	}
	return path, nil
}
