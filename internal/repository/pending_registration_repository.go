package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/commerce-service/internal/domain"
)

// ErrPendingNotFound is returned when no pending registration exists
// for an email.
var ErrPendingNotFound = errors.New("pending registration not found")

const pendingKeyPrefix = "pending_registration:"

// PendingRegistrationRepository stores in-progress registrations in a
// TTL-bounded shared store, so restarts and multiple instances agree
// on outstanding OTP codes.
type PendingRegistrationRepository interface {
	Put(ctx context.Context, pending *domain.PendingRegistration, ttl time.Duration) error
	Get(ctx context.Context, email string) (*domain.PendingRegistration, error)
	Delete(ctx context.Context, email string) error
}

type pendingRegistrationRepository struct {
	client *redis.Client
}

// NewPendingRegistrationRepository returns a Redis-backed implementation.
func NewPendingRegistrationRepository(client *redis.Client) PendingRegistrationRepository {
	return &pendingRegistrationRepository{client: client}
}

func pendingKey(email string) string {
	return pendingKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

func (r *pendingRegistrationRepository) Put(ctx context.Context, pending *domain.PendingRegistration, ttl time.Duration) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, pendingKey(pending.Email), payload, ttl).Err()
}

func (r *pendingRegistrationRepository) Get(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	payload, err := r.client.Get(ctx, pendingKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrPendingNotFound
		}
		return nil, err
	}
	var pending domain.PendingRegistration
	if err := json.Unmarshal(payload, &pending); err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *pendingRegistrationRepository) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, pendingKey(email)).Err()
}
