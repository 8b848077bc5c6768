package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisTransport carries channels over Redis pub/sub so tabs in different
// processes share them. Channel name becomes the Redis channel "<prefix>:<name>".
type RedisTransport struct {
	rdb    *redis.Client
	prefix string
	logger logrus.FieldLogger
}

// NewRedisTransport creates a RedisTransport over rdb.
func NewRedisTransport(rdb *redis.Client, prefix string, logger logrus.FieldLogger) *RedisTransport {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &RedisTransport{rdb: rdb, prefix: prefix, logger: logger.WithField("component", "broadcast")}
}

// Channel returns the Redis channel name for name.
func (t *RedisTransport) Channel(name string) string {
	if t.prefix == "" {
		return name
	}
	return t.prefix + ":" + name
}

// Open implements Transport. It returns once the subscription is confirmed.
func (t *RedisTransport) Open(ctx context.Context, name string) (Port, error) {
	channel := t.Channel(name)
	sub := t.rdb.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	p := &redisPort{
		rdb:     t.rdb,
		sub:     sub,
		channel: channel,
		id:      uuid.NewString(),
		logger:  t.logger,
		done:    make(chan struct{}),
	}
	go p.run()
	return p, nil
}

type redisPort struct {
	listeners
	rdb     *redis.Client
	sub     *redis.PubSub
	channel string
	id      string
	logger  logrus.FieldLogger
	done    chan struct{}
}

func (p *redisPort) ID() string { return p.id }

func (p *redisPort) run() {
	defer close(p.done)
	for msg := range p.sub.Channel() {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			p.logger.WithError(err).WithField("channel", p.channel).Warn("dropping undecodable broadcast")
			continue
		}
		if ev.Origin == p.id {
			continue
		}
		p.dispatch(ev)
	}
}

func (p *redisPort) Publish(ctx context.Context, ev Event) error {
	if p.isClosed() {
		return ErrClosed
	}
	data, err := json.Marshal(stamp(ev, p.id))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return nil
}

func (p *redisPort) Listen(h Handler) func() {
	return p.add(h)
}

func (p *redisPort) Close() error {
	if p.close() {
		return nil
	}
	err := p.sub.Close()
	<-p.done
	return err
}
