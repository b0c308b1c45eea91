// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package broadcast fans a single stream of events out to many
// subscribers (spec.md §4.E), optionally mirroring it through Redis
// Pub/Sub for other mediator processes.
package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clio-mediator/clio-mediator/internal/config"
	"github.com/clio-mediator/clio-mediator/internal/pipeline/normalize"
	"github.com/clio-mediator/clio-mediator/pkg/commons"
)

// Event is the wire shape pushed to subscribers: a normalized pipeline
// event plus server-assigned bookkeeping.
type Event struct {
	ID        string             `json:"id"`
	Type      normalize.EventType `json:"type"`
	Payload   normalize.Event     `json:"payload"`
	Timestamp time.Time           `json:"timestamp"`
}

// Broadcaster owns the set of live subscriber channels. Publish never
// blocks on a slow subscriber: each subscriber gets up to PutTimeout to
// accept before its event is skipped (spec.md §4.E — skip the
// subscriber's event, never drop the subscriber itself).
type Broadcaster struct {
	cfg    config.BroadcastConfig
	logger commons.Logger

	mu          sync.RWMutex
	subscribers map[string]chan Event

	redisClient *redis.Client
}

func New(cfg config.BroadcastConfig, logger commons.Logger) *Broadcaster {
	b := &Broadcaster{
		cfg:         cfg,
		logger:      logger,
		subscribers: make(map[string]chan Event),
	}
	if cfg.RedisEnabled {
		b.redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
	}
	return b
}

// Subscribe registers a new subscriber and returns its id plus the
// channel it should read from. Unsubscribe must be called when the
// caller is done (e.g. the SSE/WS handler's connection closes).
func (b *Broadcaster) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	capacity := b.cfg.SubscriberBufferSize
	if capacity <= 0 {
		capacity = 50
	}
	ch := make(chan Event, capacity)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Publish fans evt out to every current subscriber, skipping any that
// doesn't accept within PutTimeout or whose channel has been closed, and
// mirrors it to Redis when
// enabled (SPEC_FULL.md §6.E).
func (b *Broadcaster) Publish(evt normalize.Event) {
	wrapped := Event{ID: uuid.NewString(), Type: evt.Type, Payload: evt, Timestamp: time.Now()}

	b.mu.RLock()
	targets := make([]chan Event, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	timeout := b.cfg.PutTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	for _, ch := range targets {
		func() {
			// A subscriber that unsubscribed after targets was taken has a
			// closed channel; the failed send is recovered and skipped.
			defer func() {
				if recover() != nil {
					b.logger.Warnf("broadcast: subscriber gone, skipping event %s", wrapped.ID)
				}
			}()
			select {
			case ch <- wrapped:
			case <-time.After(timeout):
				b.logger.Warnf("broadcast: subscriber too slow, skipping event %s", wrapped.ID)
			}
		}()
	}

	if b.redisClient != nil {
		b.publishRedis(wrapped)
	}
}

func (b *Broadcaster) publishRedis(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		b.logger.Errorf("broadcast: marshaling event for redis: %v", err)
		return
	}
	channel := b.cfg.RedisChannel
	if channel == "" {
		channel = "clio:events"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Errorf("broadcast: redis publish failed: %v", err)
	}
}

// SubscriberCount reports the number of live subscribers (spec.md §8).
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close tears down every subscriber channel and the Redis client.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()

	if b.redisClient != nil {
		_ = b.redisClient.Close()
	}
}
