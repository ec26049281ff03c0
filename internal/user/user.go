// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package user wraps the user administration endpoints, currently the
// computation quota.
package user

import (
	"context"

	"geoengine/cli/internal/client"
)

// Quota is a user's computation budget.
type Quota struct {
	Available int64 `json:"available"`
	Used      int64 `json:"used"`
}

// Service calls the user endpoints.
type Service struct {
	c *client.Client
}

// NewService constructs a user Service on the given client.
func NewService(c *client.Client) *Service {
	return &Service{c: c}
}

// Quota returns the quota of the current session's user.
func (s *Service) Quota(ctx context.Context) (*Quota, error) {
	var q Quota
	if err := s.c.RequestAndDecode(ctx, &q, "GET", "quota", nil, nil); err != nil {
		return nil, err
	}
	return &q, nil
}

// UserQuota returns another user's quota. Requires admin permissions.
func (s *Service) UserQuota(ctx context.Context, userId string) (*Quota, error) {
	var q Quota
	if err := s.c.RequestAndDecode(ctx, &q, "GET", "quotas/"+userId, nil, nil); err != nil {
		return nil, err
	}
	return &q, nil
}

// UpdateUserQuota sets another user's available quota. Requires admin
// permissions.
func (s *Service) UpdateUserQuota(ctx context.Context, userId string, available int64) error {
	body := map[string]int64{"available": available}
	return s.c.RequestAndDecode(ctx, nil, "POST", "quotas/"+userId, nil, body)
}
