package repository

import (
	"context"
	"strings"
	"sync"
	"time"
)

type OTPCode struct {
	Email      string
	Code       string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// Usable reports whether the code is unconsumed and not yet expired.
func (c OTPCode) Usable(now time.Time) bool {
	return c.ConsumedAt == nil && now.Before(c.ExpiresAt)
}

// OTPRepository keeps the latest one-time code per email. Issuing a new
// code replaces the previous one.
type OTPRepository struct {
	mu     sync.Mutex
	latest map[string]OTPCode
}

func NewOTPRepository() *OTPRepository {
	return &OTPRepository{latest: map[string]OTPCode{}}
}

func (r *OTPRepository) Store(_ context.Context, code OTPCode) error {
	code.Email = strings.ToLower(strings.TrimSpace(code.Email))

	r.mu.Lock()
	r.latest[code.Email] = code
	r.mu.Unlock()
	return nil
}

// ConsumeLatest runs check against the latest code for email and marks
// the code consumed when check passes. Both happen under one lock, so a
// code can be redeemed once.
func (r *OTPRepository) ConsumeLatest(_ context.Context, email string, now time.Time, check func(OTPCode) error) error {
	email = strings.ToLower(strings.TrimSpace(email))

	r.mu.Lock()
	defer r.mu.Unlock()

	code, exists := r.latest[email]
	if !exists {
		return ErrNotFound
	}

	if err := check(code); err != nil {
		return err
	}

	consumed := now
	code.ConsumedAt = &consumed
	r.latest[email] = code
	return nil
}

// CleanExpired drops codes that can no longer be redeemed.
func (r *OTPRepository) CleanExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for email, code := range r.latest {
		if !code.Usable(now) {
			delete(r.latest, email)
			removed++
		}
	}
	return removed, nil
}
