package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/civicsync/civicsync-backend/internal/database"
)

// Feed event types
const (
	FeedEventCreated       = "created"
	FeedEventStatusChanged = "status_changed"
)

const feedChannel = "civicfeed"

// FeedEvent is the payload broadcast over Redis and WebSocket whenever a
// public item is created or changes status.
type FeedEvent struct {
	Type      string    `json:"type"`
	Kind      string    `json:"kind"` // issue | suggestion
	ID        string    `json:"id"`
	CaseID    string    `json:"case_id"`
	County    string    `json:"county"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// FeedConn is the minimal interface the WebSocket implementation must satisfy.
type FeedConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// FeedSubscription is the handle a registered connection holds for later
// unregistration.
type FeedSubscription struct {
	conn   FeedConn
	county string // empty = all counties
}

// FeedHub is the registry of live-feed connections on this process. Fan-out
// goes through Redis pub/sub so every instance sees every event.
type FeedHub struct {
	mu   sync.RWMutex
	subs map[*FeedSubscription]struct{}
}

var (
	feedHub       = &FeedHub{subs: make(map[*FeedSubscription]struct{})}
	fanoutStarted sync.Once
)

// RegisterFeedConn adds a connection, optionally filtered to one county, and
// starts the Redis fan-out loop on first use.
func RegisterFeedConn(conn FeedConn, county string) *FeedSubscription {
	sub := &FeedSubscription{conn: conn, county: county}

	feedHub.mu.Lock()
	feedHub.subs[sub] = struct{}{}
	feedHub.mu.Unlock()

	fanoutStarted.Do(startFeedFanout)
	return sub
}

// UnregisterFeedConn drops a connection from the hub.
func UnregisterFeedConn(sub *FeedSubscription) {
	feedHub.mu.Lock()
	delete(feedHub.subs, sub)
	feedHub.mu.Unlock()
}

// PublishFeedEvent pushes an event into Redis. Best-effort: a pub/sub outage
// never affects the request that produced the event.
func PublishFeedEvent(ev FeedEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Warn().Err(err).Msg("feed event marshal failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := database.RedisClient.Publish(ctx, feedChannel, payload).Err(); err != nil {
		log.Warn().Err(err).Msg("feed event publish failed")
	}
}

func startFeedFanout() {
	go func() {
		pubsub := database.RedisClient.Subscribe(context.Background(), feedChannel)
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var ev FeedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}

			feedHub.mu.RLock()
			for sub := range feedHub.subs {
				if sub.county != "" && sub.county != ev.County {
					continue
				}
				if err := sub.conn.WriteJSON(ev); err != nil {
					// Connection is gone; the read loop will unregister it
					continue
				}
			}
			feedHub.mu.RUnlock()
		}
	}()
}
