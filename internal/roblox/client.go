// Package roblox is a minimal client for the legacy Roblox users API,
// used to map player names to canonical numeric user ids and back.
package roblox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound covers both "no such user" and an unreachable directory.
// Callers treat either the same way: the name could not be resolved.
var ErrNotFound = errors.New("roblox user not found")

// DefaultBaseURL is the legacy users endpoint host.
const DefaultBaseURL = "https://api.roblox.com"

// DefaultTimeout bounds each lookup. One attempt, no retry.
const DefaultTimeout = 10 * time.Second

// User is the directory's view of a player.
type User struct {
	ID       int64  `json:"Id"`
	Username string `json:"Username"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client against baseURL (DefaultBaseURL if empty). A
// non-positive timeout falls back to DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// ResolveByName looks up a player by exact username. The returned user
// carries the directory's canonical casing of the name.
func (c *Client) ResolveByName(ctx context.Context, username string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, ErrNotFound
	}
	u := fmt.Sprintf("%s/users/get-by-username?username=%s",
		c.baseURL, url.QueryEscape(username))
	return c.fetchUser(ctx, u)
}

// ResolveByID is the reverse lookup for when only a numeric id is known.
func (c *Client) ResolveByID(ctx context.Context, userID int64) (User, error) {
	if userID <= 0 {
		return User{}, ErrNotFound
	}
	return c.fetchUser(ctx, fmt.Sprintf("%s/users/%d", c.baseURL, userID))
}

func (c *Client) fetchUser(ctx context.Context, u string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return User{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport failure maps to not-found: the workflow surfaces the
		// same "check spelling" hint either way.
		return User{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return User{}, ErrNotFound
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return User{}, fmt.Errorf("%w: decode: %v", ErrNotFound, err)
	}
	if user.ID <= 0 {
		return User{}, ErrNotFound
	}
	return user, nil
}

// ProfileURL is the public profile link included in approval messages.
func ProfileURL(userID int64) string {
	return fmt.Sprintf("https://www.roblox.com/users/%d/profile", userID)
}
