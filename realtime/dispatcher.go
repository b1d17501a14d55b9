package realtime

import (
	"context"

	"ai-market-coach/cache"
	"ai-market-coach/logging"
)

// DefaultChannel is the Redis pub/sub channel shared by API replicas
const DefaultChannel = "coach:sessions"

// Sink receives encoded events
type Sink interface {
	BroadcastRaw(msg []byte)
}

// Dispatcher publishes events to local sinks, relaying through Redis when
// available so every replica's clients see every event.
type Dispatcher struct {
	sinks   []Sink
	redis   *cache.RedisClient
	channel string
	logger  *logging.Logger
}

// NewDispatcher creates a dispatcher; redis may be nil for single-process fan-out
func NewDispatcher(redis *cache.RedisClient, logger *logging.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:   sinks,
		redis:   redis,
		channel: DefaultChannel,
		logger:  logger.Component("events"),
	}
}

// Publish sends an event. Failures are logged, never returned.
func (d *Dispatcher) Publish(ctx context.Context, event Event) {
	msg, err := event.Encode()
	if err != nil {
		d.logger.Error().Err(err).Str("event", event.Type).Msg("failed to encode event")
		return
	}

	if d.redis != nil {
		// the relay delivers it back to local sinks
		err := d.redis.Publish(ctx, d.channel, event)
		if err == nil {
			return
		}
		d.logger.Warn().Err(err).Msg("Redis publish failed, delivering locally")
	}
	d.deliver(msg)
}

func (d *Dispatcher) deliver(msg []byte) {
	for _, s := range d.sinks {
		s.BroadcastRaw(msg)
	}
}

// Relay forwards Redis channel messages to local sinks until ctx is done.
// Without Redis it returns immediately.
func (d *Dispatcher) Relay(ctx context.Context) {
	if d.redis == nil {
		return
	}
	pubsub := d.redis.Subscribe(ctx, d.channel)
	if pubsub == nil {
		return
	}
	defer pubsub.Close()

	d.logger.Info().Str("channel", d.channel).Msg("relaying events from Redis")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			d.deliver([]byte(m.Payload))
		}
	}
}
