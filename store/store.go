package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cinix-cli/model"
)

const (
	movieCacheTTL = 10 * time.Minute

	appDirName = "cinix-cli"
)

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Data      T         `json:"data"`
}

// LoadMovieCache returns the cached catalog and whether it is fresh.
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

// LoadTickets returns the ticket history stored under the given user
// key, newest first.
func LoadTickets(userKey string) ([]model.Ticket, error) {
	path, err := configPath(ticketsFile(userKey))
	if err != nil {
		return nil, err
	}
	return loadList[model.Ticket](path)
}

func SaveTickets(userKey string, tickets []model.Ticket) error {
	path, err := configPath(ticketsFile(userKey))
	if err != nil {
		return err
	}
	return saveList(path, tickets)
}

// PrependTicket puts a new purchase at the head of the history.
func PrependTicket(userKey string, ticket model.Ticket) error {
	existing, err := LoadTickets(userKey)
	if err != nil {
		return err
	}
	return SaveTickets(userKey, append([]model.Ticket{ticket}, existing...))
}

// ClearTickets removes the entire ticket history for the user.
func ClearTickets(userKey string) error {
	path, err := configPath(ticketsFile(userKey))
	if err != nil {
		return err
	}
	return removeIfPresent(path)
}

func LoadWishlist(userKey string) ([]model.Movie, error) {
	path, err := configPath(wishlistFile(userKey))
	if err != nil {
		return nil, err
	}
	return loadList[model.Movie](path)
}

func SaveWishlist(userKey string, movies []model.Movie) error {
	path, err := configPath(wishlistFile(userKey))
	if err != nil {
		return err
	}
	return saveList(path, movies)
}

// AddToWishlist stores the movie at the head of the wishlist, dropping
// any older entry with the same id.
func AddToWishlist(userKey string, movie model.Movie) error {
	existing, err := LoadWishlist(userKey)
	if err != nil {
		return err
	}
	next := []model.Movie{movie}
	for _, entry := range existing {
		if entry.ID == movie.ID {
			continue
		}
		next = append(next, entry)
	}
	return SaveWishlist(userKey, next)
}

func RemoveFromWishlist(userKey string, movieID string) error {
	existing, err := LoadWishlist(userKey)
	if err != nil {
		return err
	}
	next := make([]model.Movie, 0, len(existing))
	for _, entry := range existing {
		if entry.ID != movieID {
			next = append(next, entry)
		}
	}
	return SaveWishlist(userKey, next)
}

// InWishlist reports whether the movie is saved for the user.
func InWishlist(userKey string, movieID string) bool {
	existing, err := LoadWishlist(userKey)
	if err != nil {
		return false
	}
	for _, entry := range existing {
		if entry.ID == movieID {
			return true
		}
	}
	return false
}

type holdRecord struct {
	SeatsBySchedule map[string][]string `json:"seats_by_schedule"`
}

// LoadHeldSeats returns the seats locally known to be taken for a
// schedule. The record compensates for server staleness right after a
// purchase; it never expires and is never synced back.
func LoadHeldSeats(scheduleID string) (map[string]bool, error) {
	result := map[string]bool{}
	if strings.TrimSpace(scheduleID) == "" {
		return result, nil
	}
	holds, err := loadHolds()
	if err != nil {
		return nil, err
	}
	for _, seat := range holds.SeatsBySchedule[scheduleID] {
		if seat != "" {
			result[seat] = true
		}
	}
	return result, nil
}

// AppendHeldSeats records seats as taken for the schedule, merging with
// any earlier entries.
func AppendHeldSeats(scheduleID string, seats []string) error {
	scheduleID = strings.TrimSpace(scheduleID)
	if scheduleID == "" || len(seats) == 0 {
		return errors.New("schedule id and seats are required")
	}
	holds, err := loadHolds()
	if err != nil {
		return err
	}
	if holds.SeatsBySchedule == nil {
		holds.SeatsBySchedule = map[string][]string{}
	}

	merged := map[string]bool{}
	for _, seat := range holds.SeatsBySchedule[scheduleID] {
		merged[seat] = true
	}
	for _, seat := range seats {
		if seat != "" {
			merged[seat] = true
		}
	}

	next := make([]string, 0, len(merged))
	for seat := range merged {
		next = append(next, seat)
	}
	sort.Strings(next)
	holds.SeatsBySchedule[scheduleID] = next
	return saveHolds(holds)
}

// CommitPurchase performs the post-payment bookkeeping in one step:
// record the hold, then prepend the ticket. Both writes are attempted
// even if the first fails. A failure here never rolls back the payment;
// the caller only reports it.
func CommitPurchase(userKey string, ticket model.Ticket, scheduleID string, seats []string) error {
	holdErr := AppendHeldSeats(scheduleID, seats)
	ticketErr := PrependTicket(userKey, ticket)
	return errors.Join(holdErr, ticketErr)
}

// SaveUser persists the signed-in user for the next session.
func SaveUser(user model.User) error {
	path, err := configPath("user.json")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

// LoadUser returns the persisted user, if any.
func LoadUser() (model.User, bool, error) {
	path, err := configPath("user.json")
	if err != nil {
		return model.User{}, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.User{}, false, nil
		}
		return model.User{}, false, err
	}
	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return model.User{}, false, errors.New("invalid stored user format")
	}
	return user, user.Present(), nil
}

func ClearUser() error {
	path, err := configPath("user.json")
	if err != nil {
		return err
	}
	return removeIfPresent(path)
}

// SaveAdminToken persists the admin session token.
func SaveAdminToken(token string) error {
	path, err := configPath("admin_token")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

func LoadAdminToken() (string, error) {
	path, err := configPath("admin_token")
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func ClearAdminToken() error {
	path, err := configPath("admin_token")
	if err != nil {
		return err
	}
	return removeIfPresent(path)
}

func loadHolds() (holdRecord, error) {
	path, err := configPath("holds.json")
	if err != nil {
		return holdRecord{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return holdRecord{SeatsBySchedule: map[string][]string{}}, nil
		}
		return holdRecord{}, err
	}
	var holds holdRecord
	if err := json.Unmarshal(data, &holds); err != nil {
		return holdRecord{}, errors.New("invalid hold record format")
	}
	if holds.SeatsBySchedule == nil {
		holds.SeatsBySchedule = map[string][]string{}
	}
	return holds, nil
}

func saveHolds(holds holdRecord) error {
	path, err := configPath("holds.json")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(holds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func loadList[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("invalid list format in %s", filepath.Base(path))
	}
	return list, nil
}

func saveList[T any](path string, list []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if list == nil {
		list = []T{}
	}
	payload, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
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
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	cache := cacheEnvelope[T]{
		UpdatedAt: time.Now(),
		Data:      data,
	}
	payload, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func removeIfPresent(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func ticketsFile(userKey string) string {
	return fmt.Sprintf("tickets_%s.json", sanitizeKey(userKey))
}

func wishlistFile(userKey string) string {
	return fmt.Sprintf("wishlist_%s.json", sanitizeKey(userKey))
}

// sanitizeKey makes a user identifier safe as a file name component.
func sanitizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "guest_user"
	}
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == '@':
			b.WriteRune('_')
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName, name), nil
}

func cachePath(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName, name), nil
}
