package notifier

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/cricwin-ledger/pkg/contracts/events"
)

// RedisBroadcaster publica no canal Redis Pub/Sub lido pelo live-service
type RedisBroadcaster struct {
	r       redis.Cmdable
	channel string
}

func NewRedisBroadcaster(r redis.Cmdable, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, msg events.Broadcast) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}
