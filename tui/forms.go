package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-playground/validator/v10"

	"cinix-cli/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type credentialsForm struct {
	title  string
	inputs []textinput.Model
	focus  int
	note   string
}

func newCredentialsForm(title string) credentialsForm {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 120
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 120
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return credentialsForm{
		title:  title,
		inputs: []textinput.Model{email, password},
	}
}

func (f *credentialsForm) Update(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(f.inputs))
	for i := range f.inputs {
		f.inputs[i], cmds[i] = f.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

func (f *credentialsForm) Next() {
	f.setFocus((f.focus + 1) % len(f.inputs))
}

func (f *credentialsForm) Prev() {
	f.setFocus((f.focus - 1 + len(f.inputs)) % len(f.inputs))
}

func (f *credentialsForm) setFocus(index int) {
	f.focus = index
	for i := range f.inputs {
		if i == index {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

func (f *credentialsForm) Reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.note = ""
	f.setFocus(0)
}

func (f credentialsForm) Email() string    { return strings.TrimSpace(f.inputs[0].Value()) }
func (f credentialsForm) Password() string { return f.inputs[1].Value() }

func (f credentialsForm) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(f.title))
	b.WriteString("\n\n")
	labels := []string{"Email", "Password"}
	for i, input := range f.inputs {
		b.WriteString(fmt.Sprintf("%-9s %s\n", labels[i], input.View()))
	}
	if f.note != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(f.note))
	}
	b.WriteString("\n" + hint("tab next field • enter submit • esc back"))
	return b.String()
}

// movieInput carries the validation rules for the admin movie form.
type movieInput struct {
	Title       string  `validate:"required"`
	Description string  `validate:"max=2000"`
	Genre       string  `validate:"required"`
	Duration    int     `validate:"required,gt=0,lte=600"`
	AgeRating   string  `validate:"required"`
	Rating      float64 `validate:"gte=0,lte=10"`
	PosterURL   string  `validate:"omitempty,url"`
	TrailerURL  string  `validate:"omitempty,url"`
}

const (
	movieFieldTitle = iota
	movieFieldDescription
	movieFieldGenre
	movieFieldDuration
	movieFieldAgeRating
	movieFieldRating
	movieFieldPoster
	movieFieldTrailer
	movieFieldCount
)

var movieFieldLabels = [movieFieldCount]string{
	"Title", "Description", "Genre", "Duration", "Age rating", "Rating", "Poster URL", "Trailer URL",
}

type movieForm struct {
	inputs  [movieFieldCount]textinput.Model
	focus   int
	movieID string
	editing bool
	note    string
}

func newMovieForm() movieForm {
	var f movieForm
	placeholders := [movieFieldCount]string{
		"title", "short synopsis", "genre", "minutes", "13+", "0-10", "https://...", "https://...",
	}
	for i := range f.inputs {
		input := textinput.New()
		input.Placeholder = placeholders[i]
		input.CharLimit = 2000
		f.inputs[i] = input
	}
	f.inputs[0].Focus()
	return f
}

func (f *movieForm) LoadMovie(movie model.Movie) {
	f.movieID = movie.ID
	f.editing = movie.ID != ""
	f.note = ""
	f.inputs[movieFieldTitle].SetValue(movie.Title)
	f.inputs[movieFieldDescription].SetValue(movie.Description)
	f.inputs[movieFieldGenre].SetValue(movie.Genre)
	if movie.Duration > 0 {
		f.inputs[movieFieldDuration].SetValue(strconv.Itoa(movie.Duration))
	} else {
		f.inputs[movieFieldDuration].SetValue("")
	}
	f.inputs[movieFieldAgeRating].SetValue(movie.AgeRating)
	if movie.Rating > 0 {
		f.inputs[movieFieldRating].SetValue(strconv.FormatFloat(movie.Rating, 'f', -1, 64))
	} else {
		f.inputs[movieFieldRating].SetValue("")
	}
	f.inputs[movieFieldPoster].SetValue(movie.PosterURL)
	f.inputs[movieFieldTrailer].SetValue(movie.TrailerURL)
	f.setFocus(0)
}

func (f *movieForm) Update(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(f.inputs))
	for i := range f.inputs {
		f.inputs[i], cmds[i] = f.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

func (f *movieForm) Next() {
	f.setFocus((f.focus + 1) % movieFieldCount)
}

func (f *movieForm) Prev() {
	f.setFocus((f.focus - 1 + movieFieldCount) % movieFieldCount)
}

func (f *movieForm) setFocus(index int) {
	f.focus = index
	for i := range f.inputs {
		if i == index {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

// Movie validates the form and returns the assembled movie. The second
// return value is a user-facing validation message when the input is
// rejected.
func (f *movieForm) Movie() (model.Movie, string) {
	duration := 0
	if raw := strings.TrimSpace(f.inputs[movieFieldDuration].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return model.Movie{}, "duration must be a whole number of minutes"
		}
		duration = parsed
	}
	rating := 0.0
	if raw := strings.TrimSpace(f.inputs[movieFieldRating].Value()); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.Movie{}, "rating must be a number"
		}
		rating = parsed
	}

	input := movieInput{
		Title:       strings.TrimSpace(f.inputs[movieFieldTitle].Value()),
		Description: strings.TrimSpace(f.inputs[movieFieldDescription].Value()),
		Genre:       strings.TrimSpace(f.inputs[movieFieldGenre].Value()),
		Duration:    duration,
		AgeRating:   strings.TrimSpace(f.inputs[movieFieldAgeRating].Value()),
		Rating:      rating,
		PosterURL:   strings.TrimSpace(f.inputs[movieFieldPoster].Value()),
		TrailerURL:  strings.TrimSpace(f.inputs[movieFieldTrailer].Value()),
	}
	if err := validate.Struct(input); err != nil {
		return model.Movie{}, validationMessage(err)
	}

	return model.Movie{
		ID:          f.movieID,
		Title:       input.Title,
		Description: input.Description,
		Genre:       input.Genre,
		Duration:    input.Duration,
		AgeRating:   input.AgeRating,
		Rating:      input.Rating,
		PosterURL:   input.PosterURL,
		TrailerURL:  input.TrailerURL,
	}, ""
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid movie data"
	}
	first := fieldErrs[0]
	switch first.Tag() {
	case "required":
		return strings.ToLower(first.Field()) + " is required"
	case "gt", "gte":
		return strings.ToLower(first.Field()) + " is too small"
	case "lte", "max":
		return strings.ToLower(first.Field()) + " is too large"
	case "url":
		return strings.ToLower(first.Field()) + " must be a valid URL"
	default:
		return strings.ToLower(first.Field()) + " is invalid"
	}
}

func (f movieForm) View() string {
	title := "New Movie"
	if f.editing {
		title = "Edit Movie"
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n\n")
	for i, input := range f.inputs {
		b.WriteString(fmt.Sprintf("%-12s %s\n", movieFieldLabels[i], input.View()))
	}
	if f.note != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(f.note))
	}
	b.WriteString("\n" + hint("tab next field • enter save • esc back"))
	return b.String()
}
