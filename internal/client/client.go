// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package client implements the HTTP session against a Geo Engine instance.
// A Client holds the server base URL and the bearer session token and offers
// request helpers that decode JSON responses and translate the server's
// error envelope into typed errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"geoengine/cli/internal/logging"
)

// Environment variables recognized when establishing a session.
const (
	EnvServerURL = "GEOENGINE_SERVER_URL"
	EnvEmail     = "GEOENGINE_EMAIL"
	EnvPassword  = "GEOENGINE_PASSWORD"
	EnvToken     = "GEOENGINE_TOKEN"
)

// Client is an HTTP client bound to one Geo Engine instance. The zero value
// is not usable; construct it with New and authenticate with one of the
// session calls, or set Token directly when resuming a stored session.
type Client struct {
	// HTTPClient is the underlying client. If nil, a default with a
	// 60 second timeout is used.
	HTTPClient *http.Client

	// BaseURL is the server URL without a trailing slash.
	BaseURL string

	// Token is the bearer session token. Empty until a session exists.
	Token string

	// UserAgent is sent with every request.
	UserAgent string

	logger *logrus.Logger
}

const defaultUserAgent = "geoengine-cli/1.0"

var defaultHTTPClient = &http.Client{Timeout: 60 * time.Second}

// New creates a Client for the given server URL.
func New(serverURL string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(serverURL, "/"),
		UserAgent: defaultUserAgent,
		logger:    logging.Logger(),
	}
}

// NewFromEnv creates a Client from GEOENGINE_SERVER_URL.
func NewFromEnv() (*Client, error) {
	server := strings.TrimSpace(os.Getenv(EnvServerURL))
	if server == "" {
		return nil, fmt.Errorf("%s is not set", EnvServerURL)
	}
	return New(server), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return defaultHTTPClient
}

func (c *Client) log() *logrus.Logger {
	if c.logger != nil {
		return c.logger
	}
	return logging.Logger()
}

// Do adds Authorization and User-Agent headers and then calls the underlying
// HTTP client.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.Token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.log().WithFields(logrus.Fields{
			"method": req.Method,
			"url":    logging.Mask(req.URL.String()),
		}).WithError(err).Debug("request failed")
		return nil, err
	}
	c.log().WithFields(logrus.Fields{
		"method": req.Method,
		"url":    logging.Mask(req.URL.String()),
		"status": resp.StatusCode,
	}).Debug("request")
	return resp, nil
}

// RequestAndDecode performs an API request and unmarshals the response into
// dst, which must be a pointer or nil (response body discarded after error
// checking). Bodies wrapped into the server's error envelope become an
// *APIError regardless of HTTP status.
func (c *Client) RequestAndDecode(ctx context.Context, dst any, method, path string, query url.Values, body any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL(path, query), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.DoAndDecode(dst, req)
}

// DoAndDecode performs req and unmarshals the response into dst.
func (c *Client) DoAndDecode(dst any, req *http.Request) error {
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := errorFromResponse(resp.StatusCode, buf); err != nil {
		return err
	}
	if dst == nil || len(buf) == 0 || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.Unmarshal(buf, dst)
}

// RequestRaw performs an API request and returns the raw response for
// non-JSON payloads (GeoTIFF coverages, PNG maps, metadata zip files).
// The caller must close the response body.
func (c *Client) RequestRaw(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL(path, query), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		buf, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, errorFromResponse(resp.StatusCode, buf)
	}
	return resp, nil
}

// apiURL joins the base URL, path and query into a request URL.
func (c *Client) apiURL(path string, query url.Values) string {
	u := c.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// WebsocketURL rewrites an API path into the ws:// or wss:// URL of the
// corresponding streaming endpoint.
func (c *Client) WebsocketURL(path string, query url.Values) string {
	u := c.apiURL(path, query)
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	default:
		return u
	}
}
