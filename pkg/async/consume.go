package async

import (
	"context"
	"os"

	uuid "github.com/satori/go.uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"marketplace/pkg/json"
	"marketplace/pkg/logger"
	"marketplace/pkg/routine"
	"marketplace/pkg/validator"
)

// Consumer reads task messages from a queue and hands them to the registered TaskHandler.
type Consumer interface {
	Subscribe(ctx context.Context, channel Channel, queueName string) error
}

type ConsumerRegistrar interface {
	Register(handlers ...TaskHandler)
	Unregister(names ...string)
	Consumer
}

func NewTaskConsumer(opts ...Option) (ConsumerRegistrar, error) {
	o := &option{
		manager: NewManager(),
		marshal: DefaultMarshal{},
		json:    json.API,
		workers: 8,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.validator == nil {
		v, err := validator.New()
		if err != nil {
			return nil, err
		}
		o.validator = v
	}
	return &taskConsumer{option: *o}, nil
}

type taskConsumer struct {
	option
}

func (t *taskConsumer) Register(handlers ...TaskHandler) {
	t.manager.Register(handlers...)
}

func (t *taskConsumer) Unregister(names ...string) {
	t.manager.Unregister(names...)
}

const consumerTagLengthMax = 0xFF // see writeShortstr

func uniqueConsumerTag(name string) string {
	tagPrefix := "ctag."
	tagInfix := name
	if tagInfix == "" {
		tagInfix = "amqp"
	}
	tagInfix += os.Args[0]
	tagSuffix := "." + uuid.NewV4().String()
	if len(tagPrefix)+len(tagInfix)+len(tagSuffix) > consumerTagLengthMax {
		tagInfix = tagInfix[:consumerTagLengthMax-len(tagPrefix)-len(tagSuffix)]
	}
	return tagPrefix + tagInfix + tagSuffix
}

func (t *taskConsumer) logger(ctx context.Context) *zap.Logger {
	if t.log != nil {
		return t.log
	}
	return logger.From(ctx)
}

// Subscribe blocks until ctx is done or the channel can no longer deliver.
// A closed delivery channel is consumed again.
func (t *taskConsumer) Subscribe(ctx context.Context, channel Channel, queueName string) error {
	pool := routine.NewPool(routine.WithLimit(t.workers))
	defer pool.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		deliveries, err := channel.Consume(
			queueName,
			uniqueConsumerTag(queueName),
			t.autoAck,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return err
		}
		if deliveries == nil {
			<-ctx.Done()
			return nil
		}
		t.dispatch(ctx, pool, deliveries)
	}
}

func (t *taskConsumer) dispatch(ctx context.Context, pool *routine.Pool, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			pool.Go(ctx, func(ctx context.Context) {
				if err := t.handle(ctx, d); err != nil {
					t.logger(ctx).Error("acknowledge delivery", zap.Error(err))
				}
			})
		}
	}
}

// Acknowledger is the part of amqp.Delivery that settles a message.
type Acknowledger interface {
	Ack(multiple bool) error
	Reject(requeue bool) error
}

func (t *taskConsumer) handle(ctx context.Context, d amqp.Delivery) error {
	var ack Acknowledger = d
	if t.autoAck {
		ack = nil
	}
	return t.settle(ctx, &d, ack)
}

// settle runs one delivery. Malformed messages and Discard errors are rejected
// without requeue, other handler errors are requeued. ack may be nil under auto ack.
func (t *taskConsumer) settle(ctx context.Context, d *amqp.Delivery, ack Acknowledger) error {
	log := t.logger(ctx)
	reject := func(requeue bool) error {
		if ack == nil {
			return nil
		}
		return ack.Reject(requeue)
	}
	msg, err := t.marshal.Unmarshal(d)
	if err != nil {
		log.Error("unmarshal delivery", zap.Error(err))
		return reject(false)
	}
	param := Get()
	defer Put(param)
	if err = t.json.Unmarshal(msg.Payload, param); err != nil {
		log.Error("decode task", zap.String("uuid", msg.UUID), zap.Error(err))
		return reject(false)
	}
	if err = t.validator.ValidateStruct(param); err != nil {
		log.Error("invalid task", zap.String("uuid", msg.UUID), zap.Error(err))
		return reject(false)
	}
	log.Debug("run task", zap.String("uuid", msg.UUID), zap.String("type", param.TaskType))
	if err = t.manager.Run(ctx, param); err != nil {
		discard := IsDiscarded(err)
		log.Error("task failed",
			zap.String("uuid", msg.UUID),
			zap.String("type", param.TaskType),
			zap.Bool("requeue", !discard),
			zap.Error(err))
		return reject(!discard)
	}
	if ack == nil {
		return nil
	}
	return ack.Ack(false)
}
