// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package client

import (
	"context"
	"fmt"
	"net/http"
	"os"
)

// Session is the server's description of an authenticated (or anonymous)
// session. The session id doubles as the bearer token for later requests.
type Session struct {
	Id         string       `json:"id"`
	User       *SessionUser `json:"user,omitempty"`
	Created    string       `json:"created,omitempty"`
	ValidUntil string       `json:"validUntil,omitempty"`
}

// SessionUser identifies the account a session belongs to.
type SessionUser struct {
	Id    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Account returns the best human-readable identifier for the session.
func (s *Session) Account() string {
	if s.User != nil && s.User.Email != "" {
		return s.User.Email
	}
	if s.User != nil && s.User.Id != "" {
		return s.User.Id
	}
	return "anonymous"
}

// Login establishes a session with email and password credentials.
// On success the client token is set to the new session id.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	body := map[string]string{"email": email, "password": password}
	if err := c.RequestAndDecode(ctx, &s, http.MethodPost, "/login", nil, body); err != nil {
		return nil, err
	}
	c.Token = s.Id
	return &s, nil
}

// Anonymous establishes an unauthenticated session.
func (c *Client) Anonymous(ctx context.Context) (*Session, error) {
	var s Session
	if err := c.RequestAndDecode(ctx, &s, http.MethodPost, "/anonymous", nil, nil); err != nil {
		return nil, err
	}
	c.Token = s.Id
	return &s, nil
}

// SessionFromToken resumes an existing session from its token and returns
// the server's view of it.
func (c *Client) SessionFromToken(ctx context.Context, token string) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL("/session", nil), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	var s Session
	if err := c.DoAndDecode(&s, req); err != nil {
		return nil, err
	}
	c.Token = s.Id
	return &s, nil
}

// Logout invalidates the current session on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.RequestAndDecode(ctx, nil, http.MethodPost, "/logout", nil, nil)
}

// Initialize establishes a session the way the environment dictates:
// explicit credentials or token first, then the GEOENGINE_EMAIL/
// GEOENGINE_PASSWORD and GEOENGINE_TOKEN variables, and finally an
// anonymous session. Credentials and token must not both be given.
func (c *Client) Initialize(ctx context.Context, email, password, token string) (*Session, error) {
	if (email != "" || password != "") && token != "" {
		return nil, fmt.Errorf("cannot provide both credentials and a token")
	}
	switch {
	case email != "":
		return c.Login(ctx, email, password)
	case token != "":
		return c.SessionFromToken(ctx, token)
	case os.Getenv(EnvEmail) != "" && os.Getenv(EnvPassword) != "":
		return c.Login(ctx, os.Getenv(EnvEmail), os.Getenv(EnvPassword))
	case os.Getenv(EnvToken) != "":
		return c.SessionFromToken(ctx, os.Getenv(EnvToken))
	default:
		return c.Anonymous(ctx)
	}
}
