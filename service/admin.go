package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cinix-cli/model"
)

// AdminLogin authenticates against the admin endpoint and returns the
// bearer token for catalog management calls.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", errors.New("email and password are required")
	}

	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)

	endpoint := fmt.Sprintf("%s/admin/login", c.baseURL)
	raw, err := c.submitForm(ctx, http.MethodPost, endpoint, form, "")
	if err != nil {
		return "", err
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := decodePayload(raw, &payload); err != nil {
		return "", fmt.Errorf("decode admin login response: %w", err)
	}
	if payload.Token == "" {
		return "", errors.New("admin login response missing token")
	}
	return payload.Token, nil
}

// AdminLogout invalidates the admin session server-side.
func (c *Client) AdminLogout(ctx context.Context, token string) error {
	endpoint := fmt.Sprintf("%s/admin/logout", c.baseURL)
	_, err := c.submitForm(ctx, http.MethodPost, endpoint, nil, token)
	return err
}

// CreateMovie adds a movie to the catalog.
func (c *Client) CreateMovie(ctx context.Context, token string, movie model.Movie) (model.Movie, error) {
	if token == "" {
		return model.Movie{}, errors.New("admin token is required")
	}
	endpoint := fmt.Sprintf("%s/admin/addmovie", c.baseURL)
	raw, err := c.submitForm(ctx, http.MethodPost, endpoint, movieForm(movie), token)
	if err != nil {
		return model.Movie{}, err
	}

	created := movie
	if err := decodePayload(raw, &created); err != nil {
		return model.Movie{}, fmt.Errorf("decode create movie response: %w", err)
	}
	return created, nil
}

// UpdateMovie replaces a movie's fields.
func (c *Client) UpdateMovie(ctx context.Context, token string, movie model.Movie) (model.Movie, error) {
	if token == "" {
		return model.Movie{}, errors.New("admin token is required")
	}
	if movie.ID == "" {
		return model.Movie{}, errors.New("movie id is required")
	}
	endpoint := fmt.Sprintf("%s/admin/updatemovie/%s", c.baseURL, url.PathEscape(movie.ID))
	raw, err := c.submitForm(ctx, http.MethodPut, endpoint, movieForm(movie), token)
	if err != nil {
		return model.Movie{}, err
	}

	updated := movie
	if err := decodePayload(raw, &updated); err != nil {
		return model.Movie{}, fmt.Errorf("decode update movie response: %w", err)
	}
	return updated, nil
}

// DeleteMovie removes a movie from the catalog.
func (c *Client) DeleteMovie(ctx context.Context, token string, movieID string) error {
	if token == "" {
		return errors.New("admin token is required")
	}
	if movieID == "" {
		return errors.New("movie id is required")
	}
	endpoint := fmt.Sprintf("%s/admin/deletemovie/%s", c.baseURL, url.PathEscape(movieID))
	_, err := c.submitForm(ctx, http.MethodDelete, endpoint, nil, token)
	return err
}

// TokenExpired reports whether the admin token's exp claim has passed.
// The signature is not verified; only the server can do that, and the
// check here just avoids sending calls doomed to a 401. Tokens without
// an exp claim, or that do not parse at all, count as expired.
func TokenExpired(token string, now time.Time) bool {
	if strings.TrimSpace(token) == "" {
		return true
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return !now.Before(exp.Time)
}

func movieForm(movie model.Movie) url.Values {
	form := url.Values{}
	form.Set("title", movie.Title)
	form.Set("description", movie.Description)
	form.Set("genre", movie.Genre)
	form.Set("duration", strconv.Itoa(movie.Duration))
	form.Set("age_rating", movie.AgeRating)
	form.Set("rating", strconv.FormatFloat(movie.Rating, 'f', -1, 64))
	form.Set("poster_url", movie.PosterURL)
	form.Set("trailer_url", movie.TrailerURL)
	return form
}
