// Package directory talks to the external user directory that owns profiles
// and contact lists.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"messaging_go/internal/domain"
)

type tokenKey struct{}

// WithToken attaches the caller's bearer token to ctx so directory requests
// are made on the caller's behalf.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

// Client is the HTTP client for the user directory.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

var _ domain.Directory = (*Client)(nil)

// profileDTO accepts both the directory's native field names and the
// English ones.
type profileDTO struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	DisplayName string `json:"displayName"`
	Correo      string `json:"correo"`
	Email       string `json:"email"`
	Rol         string `json:"rol"`
	Role        string `json:"role"`
	Foto        string `json:"foto"`
	AvatarURL   string `json:"avatarUrl"`
}

func (p profileDTO) toProfile() *domain.Profile {
	return &domain.Profile{
		ID:          p.ID,
		DisplayName: firstNonEmpty(p.DisplayName, p.Nombre),
		Email:       firstNonEmpty(p.Email, p.Correo),
		Role:        firstNonEmpty(p.Role, p.Rol),
		AvatarURL:   firstNonEmpty(p.AvatarURL, p.Foto),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *Client) ResolveProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	var dto profileDTO
	if err := c.get(ctx, "/perfil-publico/"+strconv.FormatInt(userID, 10), &dto); err != nil {
		return nil, fmt.Errorf("resolve profile %d: %w", userID, err)
	}
	if dto.ID == 0 {
		dto.ID = userID
	}
	return dto.toProfile(), nil
}

func (c *Client) ListContacts(ctx context.Context, userID int64) ([]*domain.Profile, error) {
	var dtos []profileDTO
	if err := c.get(ctx, "/"+strconv.FormatInt(userID, 10)+"/contacts", &dtos); err != nil {
		return nil, fmt.Errorf("list contacts of %d: %w", userID, err)
	}
	res := make([]*domain.Profile, 0, len(dtos))
	for _, d := range dtos {
		res = append(res, d.toProfile())
	}
	return res, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if tok := tokenFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
		}
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: directory returned %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		// Rejected directory calls (401, 403, ...) count as upstream failures.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: directory returned %d: %s",
			domain.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode directory response: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}
