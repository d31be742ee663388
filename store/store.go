package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cinema-booking-cli/booking"
	"cinema-booking-cli/model"
)

const (
	appDir             = "cinema-booking-cli"
	movieCacheTTL      = 10 * time.Minute
	screeningCacheTTL  = 10 * time.Minute
	maxRecentScreening = 8

	sessionFile = "session.json"
	pendingFile = "pending_booking.json"
	recentFile  = "screenings.json"
)

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Data      T         `json:"data"`
}

type RecentScreening struct {
	ScreeningID model.ID  `json:"screening_id"`
	MovieTitle  string    `json:"movie_title"`
	HallName    string    `json:"hall_name"`
	StartTime   time.Time `json:"start_time"`
}

type screeningHistory struct {
	Screenings []RecentScreening `json:"screenings"`
}

// LoadSession returns the stored token pair. ok is false when nobody is
// signed in.
func LoadSession() (model.TokenPair, bool, error) {
	path, err := configPath(sessionFile)
	if err != nil {
		return model.TokenPair{}, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.TokenPair{}, false, nil
		}
		return model.TokenPair{}, false, err
	}
	var tokens model.TokenPair
	if err := json.Unmarshal(data, &tokens); err != nil {
		return model.TokenPair{}, false, errors.New("invalid session file format")
	}
	return tokens, strings.TrimSpace(tokens.Access) != "", nil
}

func SaveSession(tokens model.TokenPair) error {
	if strings.TrimSpace(tokens.Access) == "" {
		return errors.New("access token is required")
	}
	path, err := configPath(sessionFile)
	if err != nil {
		return err
	}
	return writeJSON(path, tokens, 0o600)
}

func ClearSession() error {
	return removeConfig(sessionFile)
}

// SavePending overwrites the single pending-booking slot.
func SavePending(p booking.Pending) error {
	if p.ScreeningID.IsZero() || len(p.SeatIDs) == 0 {
		return errors.New("pending booking needs a screening and seats")
	}
	path, err := configPath(pendingFile)
	if err != nil {
		return err
	}
	return writeJSON(path, p, 0o600)
}

// PeekPending reads the slot without consuming it.
func PeekPending() (booking.Pending, bool, error) {
	path, err := configPath(pendingFile)
	if err != nil {
		return booking.Pending{}, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return booking.Pending{}, false, nil
		}
		return booking.Pending{}, false, err
	}
	var p booking.Pending
	if err := json.Unmarshal(data, &p); err != nil {
		return booking.Pending{}, false, errors.New("invalid pending booking format")
	}
	return p, !p.ScreeningID.IsZero(), nil
}

// TakePending reads the slot and deletes it. A corrupt slot is discarded.
func TakePending() (booking.Pending, bool, error) {
	p, ok, err := PeekPending()
	if removeErr := removeConfig(pendingFile); removeErr != nil && err == nil {
		err = removeErr
	}
	if err != nil {
		return booking.Pending{}, false, err
	}
	return p, ok, nil
}

// PendingSlot adapts the package-level slot to booking.PendingStore.
type PendingSlot struct{}

func (PendingSlot) SavePending(p booking.Pending) error {
	return SavePending(p)
}

func LoadMovieCache() ([]model.Movie, bool, error) {
	path, err := cachePath("movies.json")
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Movie](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= movieCacheTTL, nil
}

func SaveMovieCache(movies []model.Movie) error {
	path, err := cachePath("movies.json")
	if err != nil {
		return err
	}
	return saveCache(path, movies)
}

func LoadScreeningCache(movieID model.ID) ([]model.ScreeningSummary, bool, error) {
	path, err := cachePath(fmt.Sprintf("screenings_%s.json", movieID))
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.ScreeningSummary](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= screeningCacheTTL, nil
}

func SaveScreeningCache(movieID model.ID, screenings []model.ScreeningSummary) error {
	path, err := cachePath(fmt.Sprintf("screenings_%s.json", movieID))
	if err != nil {
		return err
	}
	return saveCache(path, screenings)
}

// ClearCache drops every cached listing.
func ClearCache() error {
	dir, err := cachePath("")
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

func LoadRecentScreenings() ([]RecentScreening, error) {
	path, err := configPath(recentFile)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var history screeningHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, errors.New("invalid screening history format")
	}
	return history.Screenings, nil
}

// RememberScreening moves the screening to the front of the history.
func RememberScreening(screening model.Screening) error {
	if screening.ID.IsZero() {
		return errors.New("screening id is required")
	}
	history, _ := LoadRecentScreenings()
	next := []RecentScreening{{
		ScreeningID: screening.ID,
		MovieTitle:  screening.MovieTitle,
		HallName:    screening.HallName,
		StartTime:   screening.StartTime,
	}}
	for _, existing := range history {
		if existing.ScreeningID == screening.ID {
			continue
		}
		next = append(next, existing)
		if len(next) >= maxRecentScreening {
			break
		}
	}

	path, err := configPath(recentFile)
	if err != nil {
		return err
	}
	return writeJSON(path, screeningHistory{Screenings: next}, 0o644)
}

func loadCache[T any](path string) (cacheEnvelope[T], error) {
	var cache cacheEnvelope[T]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return cache, err
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return cache, err
	}
	return cache, nil
}

func saveCache[T any](path string, data T) error {
	cache := cacheEnvelope[T]{
		UpdatedAt: time.Now(),
		Data:      data,
	}
	return writeJSON(path, cache, 0o644)
}

func writeJSON(path string, v any, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, payload, perm); err != nil {
		return err
	}
	return os.Chmod(path, perm)
}

func removeConfig(name string) error {
	path, err := configPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}

func cachePath(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}
