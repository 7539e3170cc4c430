// Package mq carries docstore change events over Redis pub/sub so every
// process serving the storefront rehydrates after any write.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"caintamart/docstore"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "docstore:"

func channel(collection string) string { return channelPrefix + collection }

// Feed implements docstore.Feed on Redis channels named
// "docstore:{collection}".
type Feed struct {
	client *redis.Client
}

func NewFeed(client *redis.Client) *Feed {
	return &Feed{client: client}
}

// Publish emits one change event.
func (f *Feed) Publish(ctx context.Context, ev docstore.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("mq: marshal event: %w", err)
	}
	if err := f.client.Publish(ctx, channel(ev.Collection), data).Err(); err != nil {
		return fmt.Errorf("mq: publish %s: %w", channel(ev.Collection), err)
	}
	return nil
}

// Subscribe listens on the collection channel until the returned cancel is
// called or ctx ends.
func (f *Feed) Subscribe(ctx context.Context, collection string) (<-chan docstore.ChangeEvent, func() error, error) {
	name := channel(collection)
	sub := f.client.Subscribe(ctx, name)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("mq: subscribe %s: %w", name, err)
	}

	out := make(chan docstore.ChangeEvent, 64)
	go func() {
		defer close(out)
		log.Printf("[Feed] listening on %s", name)
		for msg := range sub.Channel() {
			var ev docstore.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("[Feed] bad payload on %s: %v", name, err)
				continue
			}
			select {
			case out <- ev:
			default:
				log.Printf("[Feed] %s subscriber is behind, dropping %s", name, ev.Path)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return out, sub.Close, nil
}
