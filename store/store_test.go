package store

import (
	"testing"

	"cinix-cli/model"
)

func setTestConfigDir(t *testing.T) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", root)
	t.Setenv("XDG_CACHE_HOME", root)
}

func TestHeldSeats_RoundTrip(t *testing.T) {
	setTestConfigDir(t)

	held, err := LoadHeldSeats("sched-1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(held) != 0 {
		t.Fatalf("expected no held seats, got %+v", held)
	}

	if err := AppendHeldSeats("sched-1", []string{"C4", "C5"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := AppendHeldSeats("sched-1", []string{"C5", "A1"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	held, err = LoadHeldSeats("sched-1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !held["A1"] || !held["C4"] || !held["C5"] {
		t.Fatalf("expected merged seats, got %+v", held)
	}
	if len(held) != 3 {
		t.Fatalf("expected duplicates collapsed, got %+v", held)
	}

	other, err := LoadHeldSeats("sched-2")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected holds scoped per schedule, got %+v", other)
	}
}

func TestAppendHeldSeats_InvalidInput(t *testing.T) {
	setTestConfigDir(t)

	if err := AppendHeldSeats("", []string{"A1"}); err == nil {
		t.Fatal("expected error for empty schedule id")
	}
	if err := AppendHeldSeats("sched-1", nil); err == nil {
		t.Fatal("expected error for empty seat list")
	}
}

func TestPrependTicket_NewestFirst(t *testing.T) {
	setTestConfigDir(t)

	if err := PrependTicket("ana@example.com", model.Ticket{ID: "t1", MovieTitle: "First"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := PrependTicket("ana@example.com", model.Ticket{ID: "t2", MovieTitle: "Second"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	tickets, err := LoadTickets("ana@example.com")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(tickets))
	}
	if tickets[0].ID != "t2" || tickets[1].ID != "t1" {
		t.Fatalf("expected newest first, got %+v", tickets)
	}

	other, err := LoadTickets("bob@example.com")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected history scoped per user, got %+v", other)
	}
}

func TestClearTickets(t *testing.T) {
	setTestConfigDir(t)

	if err := ClearTickets("ana@example.com"); err != nil {
		t.Fatalf("expected clear of missing history to succeed, got %v", err)
	}

	if err := PrependTicket("ana@example.com", model.Ticket{ID: "t1"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := ClearTickets("ana@example.com"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	tickets, err := LoadTickets("ana@example.com")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(tickets) != 0 {
		t.Fatalf("expected empty history, got %+v", tickets)
	}
}

func TestWishlist_DedupeNewestFirst(t *testing.T) {
	setTestConfigDir(t)

	if err := AddToWishlist("ana@example.com", model.Movie{ID: "m1", Title: "Old Cut"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := AddToWishlist("ana@example.com", model.Movie{ID: "m2", Title: "Other"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := AddToWishlist("ana@example.com", model.Movie{ID: "m1", Title: "New Cut"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	list, err := LoadWishlist("ana@example.com")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected duplicate collapsed, got %+v", list)
	}
	if list[0].ID != "m1" || list[0].Title != "New Cut" {
		t.Fatalf("expected newest entry kept at head, got %+v", list)
	}

	if !InWishlist("ana@example.com", "m2") {
		t.Fatal("expected m2 in wishlist")
	}
	if err := RemoveFromWishlist("ana@example.com", "m2"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if InWishlist("ana@example.com", "m2") {
		t.Fatal("expected m2 removed from wishlist")
	}
}

func TestUser_RoundTrip(t *testing.T) {
	setTestConfigDir(t)

	_, present, err := LoadUser()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if present {
		t.Fatal("expected no stored user")
	}

	if err := SaveUser(model.User{ID: "u1", Email: "ana@example.com", Name: "Ana"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	user, present, err := LoadUser()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !present || user.Email != "ana@example.com" {
		t.Fatalf("expected stored user back, got present=%v user=%+v", present, user)
	}

	if err := ClearUser(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	_, present, err = LoadUser()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if present {
		t.Fatal("expected user cleared")
	}
}

func TestAdminToken_RoundTrip(t *testing.T) {
	setTestConfigDir(t)

	token, err := LoadAdminToken()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if token != "" {
		t.Fatalf("expected empty token, got %q", token)
	}

	if err := SaveAdminToken("abc.def.ghi"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	token, err = LoadAdminToken()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if token != "abc.def.ghi" {
		t.Fatalf("expected stored token back, got %q", token)
	}

	if err := ClearAdminToken(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestResolveUserKey(t *testing.T) {
	cases := []struct {
		name string
		user model.User
		want string
	}{
		{"email wins", model.User{ID: "u1", Email: "ana@example.com", Username: "ana"}, "ana@example.com"},
		{"id fallback", model.User{ID: "u1", Username: "ana"}, "u1"},
		{"username fallback", model.User{Username: "ana"}, "ana"},
		{"guest fallback", model.User{}, GuestKey},
		{"blank email skipped", model.User{Email: "   ", ID: "u1"}, "u1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveUserKey(tc.user); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestMigrateLegacyData(t *testing.T) {
	setTestConfigDir(t)

	// History written before sign-in and under the raw backend id.
	if err := PrependTicket(GuestKey, model.Ticket{ID: "t-guest", MovieTitle: "Guest Show"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := PrependTicket("u1", model.Ticket{ID: "t-id", MovieTitle: "Id Show"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := AddToWishlist("u1", model.Movie{ID: "m1", Title: "Saved"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := PrependTicket("ana@example.com", model.Ticket{ID: "t-id", MovieTitle: "Id Show"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	user := model.User{ID: "u1", Email: "ana@example.com", Username: "ana"}
	if err := MigrateLegacyData(user); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	tickets, err := LoadTickets("ana@example.com")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("expected merged history without duplicates, got %+v", tickets)
	}

	old, err := LoadTickets("u1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(old) != 0 {
		t.Fatalf("expected legacy history removed, got %+v", old)
	}

	list, err := LoadWishlist("ana@example.com")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(list) != 1 || list[0].ID != "m1" {
		t.Fatalf("expected wishlist migrated, got %+v", list)
	}
}

func TestCommitPurchase(t *testing.T) {
	setTestConfigDir(t)

	ticket := model.Ticket{ID: "t1", MovieTitle: "Show", Seats: []string{"C4", "C5"}}
	if err := CommitPurchase("ana@example.com", ticket, "sched-1", []string{"C4", "C5"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	held, err := LoadHeldSeats("sched-1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !held["C4"] || !held["C5"] {
		t.Fatalf("expected committed seats held, got %+v", held)
	}

	tickets, err := LoadTickets("ana@example.com")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(tickets) != 1 || tickets[0].ID != "t1" {
		t.Fatalf("expected ticket recorded, got %+v", tickets)
	}
}
