package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/events"
)

const requestKeyPrefix = "request:detail:"

// RequestCache caches resolved request details in Redis. All operations
// degrade to no-ops when Redis is unavailable; the database remains the
// source of truth.
type RequestCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRequestCache constructs the cache.
func NewRequestCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RequestCache {
	return &RequestCache{client: client, ttl: ttl, logger: logger}
}

// Get unmarshals a cached entry into dest, reporting whether it was found.
func (c *RequestCache) Get(ctx context.Context, requestID string, dest any) bool {
	if c == nil || c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, requestKeyPrefix+requestID).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("corrupt cache entry", zap.String("request_id", requestID), zap.Error(err))
		return false
	}
	return true
}

// Set stores value under the request's cache key.
func (c *RequestCache) Set(ctx context.Context, requestID string, value any) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, requestKeyPrefix+requestID, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("cache set failed", zap.String("request_id", requestID), zap.Error(err))
	}
}

// Invalidate drops the cached entry for a request.
func (c *RequestCache) Invalidate(ctx context.Context, requestID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, requestKeyPrefix+requestID).Err(); err != nil {
		c.logger.Debug("cache invalidate failed", zap.String("request_id", requestID), zap.Error(err))
	}
}

// RegisterInvalidation drops cache entries whenever a request mutates.
func (c *RequestCache) RegisterInvalidation(dispatcher events.Dispatcher) {
	if c == nil || dispatcher == nil {
		return
	}
	handler := func(ctx context.Context, event events.Event) error {
		c.Invalidate(ctx, event.RequestID)
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventRequestApproved,
		events.EventTaskAccepted,
		events.EventRequestStatusChanged,
		events.EventEditProposed,
		events.EventEditResolved,
		events.EventFeedbackAdded,
		events.EventRequestDeleted,
	} {
		dispatcher.Subscribe(eventType, handler)
	}
}
