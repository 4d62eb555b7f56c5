package moderation

import (
	"context"
	"errors"
	"time"

	"bazaar/backend/internal/apperr"
	"bazaar/backend/internal/models"
)

// UserReader loads users by id.
type UserReader interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Authorizer decides who may review reports.
type Authorizer interface {
	IsReviewer(ctx context.Context, userID string) (bool, error)
}

// RoleAuthorizer grants review rights to users with the admin role.
type RoleAuthorizer struct {
	Users UserReader
}

func (a RoleAuthorizer) IsReviewer(ctx context.Context, userID string) (bool, error) {
	u, err := a.Users.GetUserByID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.Role == models.RoleAdmin, nil
}

// SuspensionChecker decides whether a recorded suspension is in force.
// Nothing clears IsSuspended when the window passes; expiry is judged here.
type SuspensionChecker interface {
	IsCurrentlySuspended(user *models.User, now time.Time) bool
}

// ExpiryPolicy treats a suspension as lapsed once now reaches the end date.
// A suspension without an end date never lapses.
type ExpiryPolicy struct{}

func (ExpiryPolicy) IsCurrentlySuspended(user *models.User, now time.Time) bool {
	s := user.Standing
	if !s.IsSuspended {
		return false
	}
	if s.SuspensionEndDate == nil {
		return true
	}
	return now.Before(*s.SuspensionEndDate)
}

// BanCache mirrors suspensions for fast checks. storage.BanCache implements it.
type BanCache interface {
	MarkBanned(ctx context.Context, userID, reason string, until time.Time) error
	IsUserBanned(ctx context.Context, userID string) (bool, error)
}

// Guard answers "is this caller suspended right now" for the HTTP layer.
type Guard struct {
	Users   UserReader
	Checker SuspensionChecker
	// Cache is optional. A hit short-circuits the user lookup.
	Cache BanCache
	Now   func() time.Time
}

func (g *Guard) IsSuspended(ctx context.Context, userID string) (bool, error) {
	if g.Cache != nil {
		// помилка кешу не блокує запит: перевіряємо по базі
		if banned, err := g.Cache.IsUserBanned(ctx, userID); err == nil && banned {
			return true, nil
		}
	}
	u, err := g.Users.GetUserByID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	if g.Now != nil {
		now = g.Now()
	}
	return g.Checker.IsCurrentlySuspended(u, now), nil
}
