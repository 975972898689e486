package async

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

type MarshalAPI interface {
	Marshal(msg *message.Message) (amqp.Publishing, error)
	Unmarshal(amqpMsg *amqp.Delivery) (*message.Message, error)
}

// DefaultMarshal maps the watermill uuid to the AMQP message id and the
// metadata to string headers. Messages are persistent unless Transient is set.
type DefaultMarshal struct {
	Transient bool
}

func (d DefaultMarshal) Marshal(msg *message.Message) (amqp.Publishing, error) {
	headers := make(amqp.Table, len(msg.Metadata))
	for key, value := range msg.Metadata {
		headers[key] = value
	}
	publishing := amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    msg.UUID,
		Headers:      headers,
		Body:         msg.Payload,
		DeliveryMode: amqp.Persistent,
	}
	if d.Transient {
		publishing.DeliveryMode = amqp.Transient
	}
	return publishing, nil
}

func (d DefaultMarshal) Unmarshal(amqpMsg *amqp.Delivery) (*message.Message, error) {
	msg := message.NewMessage(amqpMsg.MessageId, amqpMsg.Body)
	msg.Metadata = make(message.Metadata, len(amqpMsg.Headers))
	for key, value := range amqpMsg.Headers {
		s, ok := value.(string)
		if !ok {
			return nil, errors.Errorf("metadata %s is not a string, but %#v", key, value)
		}
		msg.Metadata[key] = s
	}
	return msg, nil
}
