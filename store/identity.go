package store

import (
	"strings"

	"cinix-cli/model"
)

// GuestKey scopes history written before anyone signs in.
const GuestKey = "guest_user"

// ResolveUserKey picks the identifier that scopes per-user files. Email
// is preferred because it is stable across backend id changes.
func ResolveUserKey(user model.User) string {
	for _, candidate := range []string{user.Email, user.ID, user.Username} {
		if key := strings.TrimSpace(candidate); key != "" {
			return key
		}
	}
	return GuestKey
}

// MigrateLegacyData folds history stored under weaker identifiers into
// the user's canonical key. Earlier versions keyed files by whichever
// field happened to be set at sign-in, so the same person can have
// tickets scattered across several keys. Runs once per sign-in; merged
// sources are deleted.
func MigrateLegacyData(user model.User) error {
	canonical := ResolveUserKey(user)
	if canonical == GuestKey {
		return nil
	}

	seen := map[string]bool{sanitizeKey(canonical): true}
	var legacy []string
	for _, candidate := range []string{user.ID, user.Username, user.Email, GuestKey} {
		key := strings.TrimSpace(candidate)
		if key == "" || seen[sanitizeKey(key)] {
			continue
		}
		seen[sanitizeKey(key)] = true
		legacy = append(legacy, key)
	}

	for _, key := range legacy {
		if err := mergeTickets(key, canonical); err != nil {
			return err
		}
		if err := mergeWishlist(key, canonical); err != nil {
			return err
		}
	}
	return nil
}

func mergeTickets(from, into string) error {
	old, err := LoadTickets(from)
	if err != nil || len(old) == 0 {
		return err
	}
	current, err := LoadTickets(into)
	if err != nil {
		return err
	}

	known := map[string]bool{}
	for _, t := range current {
		known[t.ID] = true
	}
	for _, t := range old {
		if t.ID != "" && known[t.ID] {
			continue
		}
		current = append(current, t)
	}

	if err := SaveTickets(into, current); err != nil {
		return err
	}
	return ClearTickets(from)
}

func mergeWishlist(from, into string) error {
	old, err := LoadWishlist(from)
	if err != nil || len(old) == 0 {
		return err
	}
	current, err := LoadWishlist(into)
	if err != nil {
		return err
	}

	known := map[string]bool{}
	for _, m := range current {
		known[m.ID] = true
	}
	for _, m := range old {
		if known[m.ID] {
			continue
		}
		current = append(current, m)
	}

	if err := SaveWishlist(into, current); err != nil {
		return err
	}

	path, err := configPath(wishlistFile(from))
	if err != nil {
		return err
	}
	return removeIfPresent(path)
}
