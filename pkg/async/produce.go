package async

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"

	"marketplace/pkg/json"
)

type Producer interface {
	Publish(ctx context.Context, channel Channel, exchange, routingKey string, params ...*Param) error
}

type ProducerOption func(*taskProducer)

func WithProducerMarshal(m MarshalAPI) ProducerOption {
	return func(p *taskProducer) {
		p.marshal = m
	}
}

func NewTaskProducer(opts ...ProducerOption) Producer {
	p := &taskProducer{
		marshal: DefaultMarshal{},
		json:    json.API,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type taskProducer struct {
	marshal MarshalAPI
	json    jsoniter.API
}

// NewParam builds a Param whose Data is the json encoding of data.
func NewParam(taskType string, data interface{}) (*Param, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Param{TaskType: taskType, Metadata: map[string]interface{}{}, Data: raw}, nil
}

func (t *taskProducer) Publish(ctx context.Context, channel Channel, exchange, routingKey string, params ...*Param) error {
	publishings := make([]amqp.Publishing, 0, len(params))
	for _, param := range params {
		body, err := t.json.Marshal(param)
		if err != nil {
			return errors.WithStack(err)
		}
		msg := message.NewMessage(watermill.NewUUID(), body)
		msg.SetContext(ctx)
		publishing, err := t.marshal.Marshal(msg)
		if err != nil {
			return errors.WithStack(err)
		}
		publishings = append(publishings, publishing)
	}
	return channel.Publish(exchange, routingKey, false, false, publishings...)
}
