package hook

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	backoff "github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"marketplace/internal/model"
	"marketplace/pkg/idx"
	"marketplace/pkg/json"
	"marketplace/pkg/logger"
	"marketplace/pkg/routine"
)

const topic = "marketplace.events"

type BusOption func(*Bus)

func WithBuffer(n int64) BusOption {
	return func(b *Bus) {
		b.buffer = n
	}
}

func WithMaxRetries(n uint64) BusOption {
	return func(b *Bus) {
		b.maxRetries = n
	}
}

func WithRetryInterval(d time.Duration) BusOption {
	return func(b *Bus) {
		b.retryInterval = d
	}
}

// Bus implements Hooks by publishing events on an in-process channel. Every
// listener has its own subscription, so a slow or failing listener never
// holds back the publisher or the other listeners.
type Bus struct {
	buffer        int64
	maxRetries    uint64
	retryInterval time.Duration

	log    *zap.Logger
	pubsub *gochannel.GoChannel
	ctx    context.Context
	cancel context.CancelFunc
	pool   *routine.Pool

	closeOnce sync.Once
}

func NewBus(log *zap.Logger, opts ...BusOption) *Bus {
	b := &Bus{
		buffer:        256,
		maxRetries:    3,
		retryInterval: 200 * time.Millisecond,
		log:           log,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.pubsub = gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: b.buffer,
	}, logger.NewWatermillAdapter(log.Named("bus")))
	b.ctx, b.cancel = context.WithCancel(logger.With(context.Background(), log))
	b.pool = routine.NewPool()
	return b
}

// AddListener subscribes l. Events published before the call are not delivered to l.
func (b *Bus) AddListener(l Listener) error {
	messages, err := b.pubsub.Subscribe(b.ctx, topic)
	if err != nil {
		return errors.WithStack(err)
	}
	b.pool.Go(b.ctx, func(ctx context.Context) {
		for msg := range messages {
			b.deliver(ctx, l, msg)
		}
	})
	return nil
}

func (b *Bus) deliver(ctx context.Context, l Listener, msg *message.Message) {
	// acked whatever happens, a poisoned event must not block the subscription
	defer msg.Ack()
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		b.log.Error("decode event", zap.String("uuid", msg.UUID), zap.Error(err))
		return
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(b.retryInterval), b.maxRetries), ctx)
	err := backoff.Retry(func() error {
		return l.Handle(ctx, &event)
	}, policy)
	if err != nil {
		b.log.Error("listener failed",
			zap.String("listener", l.Name()),
			zap.String("kind", string(event.Kind)),
			zap.Uint64("event_id", event.ID),
			zap.Error(err))
	}
}

func (b *Bus) publish(ctx context.Context, event *Event) {
	event.OccurredAt = time.Now().UTC()
	if id, err := idx.NextID(); err == nil {
		event.ID = id
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.From(ctx).Error("encode event", zap.String("kind", string(event.Kind)), zap.Error(err))
		return
	}
	if err = b.pubsub.Publish(topic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		logger.From(ctx).Error("publish event", zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}

// Close stops every subscription and waits for in-flight deliveries.
func (b *Bus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.cancel()
		err = multierr.Append(err, b.pubsub.Close())
		b.pool.Wait()
	})
	return err
}

func (b *Bus) OnResourceStateChanged(ctx context.Context, resource *model.Resource, oldState, newState model.ResourceState) {
	b.publish(ctx, &Event{Kind: KindResourceStateChanged, Resource: resource, OldState: oldState, NewState: newState})
}

func (b *Bus) OnOrderExecuted(ctx context.Context, order *model.Order) {
	b.publish(ctx, &Event{Kind: KindOrderExecuted, Order: order})
}

func (b *Bus) OnOrderCompleted(ctx context.Context, order *model.Order) {
	b.publish(ctx, &Event{Kind: KindOrderCompleted, Order: order})
}

func (b *Bus) OnOrderFailed(ctx context.Context, order *model.Order) {
	b.publish(ctx, &Event{Kind: KindOrderFailed, Order: order})
}

func (b *Bus) OnCreationFailed(ctx context.Context, resource *model.Resource, order *model.Order) {
	b.publish(ctx, &Event{Kind: KindCreationFailed, Resource: resource, Order: order})
}

func (b *Bus) OnPlanChanged(ctx context.Context, resource *model.Resource, change PlanChange) {
	b.publish(ctx, &Event{Kind: KindPlanChanged, Resource: resource, PlanChange: &change})
}
