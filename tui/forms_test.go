package tui

import (
	"strings"
	"testing"

	"cinix-cli/model"
)

func testMovieRecord() model.Movie {
	return model.Movie{
		ID:        "m1",
		Title:     "Pengabdi Setan",
		Genre:     "Horror",
		Duration:  107,
		AgeRating: "17+",
		Rating:    8.1,
	}
}

func filledMovieForm() movieForm {
	f := newMovieForm()
	f.inputs[movieFieldTitle].SetValue("Pengabdi Setan")
	f.inputs[movieFieldGenre].SetValue("Horror")
	f.inputs[movieFieldDuration].SetValue("107")
	f.inputs[movieFieldAgeRating].SetValue("17+")
	f.inputs[movieFieldRating].SetValue("8.1")
	return f
}

func TestMovieForm_ValidInput(t *testing.T) {
	f := filledMovieForm()
	movie, problem := f.Movie()
	if problem != "" {
		t.Fatalf("expected no validation problem, got %q", problem)
	}
	if movie.Title != "Pengabdi Setan" || movie.Duration != 107 || movie.Rating != 8.1 {
		t.Fatalf("unexpected movie: %+v", movie)
	}
}

func TestMovieForm_RejectsBadInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*movieForm)
	}{
		{"empty title", func(f *movieForm) { f.inputs[movieFieldTitle].SetValue("  ") }},
		{"zero duration", func(f *movieForm) { f.inputs[movieFieldDuration].SetValue("0") }},
		{"non-numeric duration", func(f *movieForm) { f.inputs[movieFieldDuration].SetValue("two hours") }},
		{"rating above scale", func(f *movieForm) { f.inputs[movieFieldRating].SetValue("11") }},
		{"malformed poster url", func(f *movieForm) { f.inputs[movieFieldPoster].SetValue("not-a-url") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := filledMovieForm()
			tc.mutate(&f)
			if _, problem := f.Movie(); problem == "" {
				t.Fatal("expected a validation problem")
			}
		})
	}
}

func TestMovieForm_EditKeepsID(t *testing.T) {
	f := newMovieForm()
	f.LoadMovie(testMovieRecord())
	if !f.editing {
		t.Fatal("expected form to be in edit mode")
	}
	movie, problem := f.Movie()
	if problem != "" {
		t.Fatalf("expected no validation problem, got %q", problem)
	}
	if movie.ID != "m1" {
		t.Fatalf("expected id to survive editing, got %q", movie.ID)
	}
}

func TestCredentialsForm_TrimsEmail(t *testing.T) {
	f := newCredentialsForm("Sign In")
	f.inputs[0].SetValue("  ana@example.com  ")
	f.inputs[1].SetValue("secret")
	if got := f.Email(); got != "ana@example.com" {
		t.Fatalf("expected trimmed email, got %q", got)
	}
	if got := f.Password(); got != "secret" {
		t.Fatalf("unexpected password: %q", got)
	}
	if !strings.Contains(f.View(), "Sign In") {
		t.Fatal("expected the form title in the view")
	}
}
