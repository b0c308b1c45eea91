// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clio-mediator/clio-mediator/internal/config"
	"github.com/clio-mediator/clio-mediator/internal/pipeline/normalize"
	"github.com/clio-mediator/clio-mediator/pkg/commons"
)

func TestSubscribe_ReceivesPublishedEvent(t *testing.T) {
	b := New(config.BroadcastConfig{SubscriberBufferSize: 4, PutTimeout: 100 * time.Millisecond}, commons.NewNopLogger())
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	b.Publish(normalize.Event{Type: normalize.EventFinal, Text: "hello"})

	select {
	case evt := <-ch:
		assert.Equal(t, "hello", evt.Payload.Text)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}
}

func TestPublish_SlowSubscriberSkippedNotDropped(t *testing.T) {
	b := New(config.BroadcastConfig{SubscriberBufferSize: 1, PutTimeout: 10 * time.Millisecond}, commons.NewNopLogger())
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	b.Publish(normalize.Event{Type: normalize.EventFinal, Text: "one"}) // fills the buffer
	b.Publish(normalize.Event{Type: normalize.EventFinal, Text: "two"}) // subscriber too slow, skipped

	require.Equal(t, 1, b.SubscriberCount(), "subscriber must remain registered after a skip")

	first := <-ch
	assert.Equal(t, "one", first.Payload.Text)
}

func TestUnsubscribe_RemovesSubscriber(t *testing.T) {
	b := New(config.BroadcastConfig{}, commons.NewNopLogger())
	id, _ := b.Subscribe()
	assert.Equal(t, 1, b.SubscriberCount())
	b.Unsubscribe(id)
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestClose_ClosesAllSubscriberChannels(t *testing.T) {
	b := New(config.BroadcastConfig{}, commons.NewNopLogger())
	_, ch := b.Subscribe()
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)
}
