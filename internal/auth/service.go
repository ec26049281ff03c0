// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"
	"os"
	"strings"

	"geoengine/cli/internal/client"
	"geoengine/cli/internal/config"
	"geoengine/cli/internal/errors"
	"geoengine/cli/internal/keychain"
)

// Service centralizes session operations against a Geo Engine instance
// and local secure storage/state.
type Service struct {
	c *client.Client
}

// NewService constructs an auth Service for the given server URL.
func NewService(serverURL string) *Service {
	return &Service{c: client.New(serverURL)}
}

// ResolveServer picks the server URL: explicit flag first, then the
// GEOENGINE_SERVER_URL environment variable, then the stored session's
// server, then the config file.
func ResolveServer(flagValue string) (string, error) {
	if s := strings.TrimSpace(flagValue); s != "" {
		return s, nil
	}
	if s := strings.TrimSpace(os.Getenv(client.EnvServerURL)); s != "" {
		return s, nil
	}
	if km, err := keychain.GetManager(); err == nil {
		if s, err := km.LoadServerURL(); err == nil && s != "" {
			return s, nil
		}
	}
	cfg, err := config.Load()
	if err == nil && cfg.Server != "" {
		return cfg.Server, nil
	}
	return "", errors.New(errors.NoSession, "no server configured; pass --server or run 'geoengine login'")
}

// Login establishes a credentialed session and persists it.
func (s *Service) Login(ctx context.Context, email, password string) (*client.Session, error) {
	sess, err := s.c.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return sess, s.persist(sess)
}

// LoginWithToken resumes a session from an existing token and persists it.
func (s *Service) LoginWithToken(ctx context.Context, token string) (*client.Session, error) {
	sess, err := s.c.SessionFromToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return sess, s.persist(sess)
}

// Anonymous establishes an anonymous session and persists it.
func (s *Service) Anonymous(ctx context.Context) (*client.Session, error) {
	sess, err := s.c.Anonymous(ctx)
	if err != nil {
		return nil, err
	}
	return sess, s.persist(sess)
}

func (s *Service) persist(sess *client.Session) error {
	km, err := keychain.GetManager()
	if err != nil {
		return err
	}
	if err := km.SaveSession(sess.Id, s.c.BaseURL); err != nil {
		return err
	}
	return Save(State{LoggedIn: true, Account: sess.Account(), Server: s.c.BaseURL})
}

// Logout performs remote logout (best-effort) and clears local credentials/state.
func (s *Service) Logout(ctx context.Context) error {
	if km, err := keychain.GetManager(); err == nil {
		if token, err := km.LoadSessionToken(); err == nil && token != "" {
			s.c.Token = token
			_ = s.c.Logout(ctx)
		}
		if err := km.ClearSession(); err != nil {
			return err
		}
	}
	return Clear()
}

// CurrentClient returns a client carrying the stored session token.
// It establishes a fresh session from the environment when no session is
// stored and GEOENGINE_* variables are set, so scripted use works without
// an explicit login step.
func CurrentClient(ctx context.Context, serverFlag string) (*client.Client, error) {
	server, err := ResolveServer(serverFlag)
	if err != nil {
		return nil, err
	}
	c := client.New(server)

	if km, kerr := keychain.GetManager(); kerr == nil {
		if token, terr := km.LoadSessionToken(); terr == nil && token != "" {
			c.Token = token
			return c, nil
		}
	}

	if os.Getenv(client.EnvEmail) != "" || os.Getenv(client.EnvToken) != "" {
		if _, err := c.Initialize(ctx, "", "", ""); err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, errors.New(errors.NoSession, "not logged in; run 'geoengine login' first")
}

// WhoAmI validates the stored session and returns the account when valid.
// Falls back to local state when the server is unreachable.
func (s *Service) WhoAmI(ctx context.Context) (string, bool, error) {
	km, err := keychain.GetManager()
	if err != nil {
		return "", false, nil // keychain unavailable = not logged in
	}
	token, err := km.LoadSessionToken()
	if err == nil && token != "" {
		if sess, err := s.c.SessionFromToken(ctx, token); err == nil {
			return sess.Account(), true, nil
		} else if apiErr, ok := err.(*client.APIError); ok && apiErr.IsUnauthorized() {
			// session expired on the server side
			_ = km.ClearSession()
			_ = Clear()
			return "", false, nil
		}
	}
	// offline fallback
	st, err := Load()
	if err != nil {
		return "", false, err
	}
	if st.LoggedIn && st.Account != "" {
		return st.Account, true, nil
	}
	return "", false, nil
}
