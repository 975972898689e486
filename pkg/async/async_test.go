package async

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/golang/mock/gomock"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/pkg/json"
)

type recordAck struct {
	mu       sync.Mutex
	acked    int
	rejected []bool
}

func (r *recordAck) Ack(bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acked++
	return nil
}

func (r *recordAck) Reject(requeue bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, requeue)
	return nil
}

type funcHandler struct {
	name string
	fn   func(ctx context.Context, param *Param) error
}

func (f funcHandler) Name() string { return f.name }

func (f funcHandler) Run(ctx context.Context, param *Param) error { return f.fn(ctx, param) }

func publishings(t *testing.T, params ...*Param) []amqp.Publishing {
	ctrl := gomock.NewController(t)
	ch := NewMockChannel(ctrl)
	var out []amqp.Publishing
	ch.EXPECT().Publish("ex", "key", false, false, gomock.Any()).
		DoAndReturn(func(_, _ string, _, _ bool, msg ...amqp.Publishing) error {
			out = append(out, msg...)
			return nil
		})
	require.NoError(t, NewTaskProducer().Publish(context.Background(), ch, "ex", "key", params...))
	return out
}

func delivery(p amqp.Publishing) *amqp.Delivery {
	return &amqp.Delivery{MessageId: p.MessageId, Headers: p.Headers, Body: p.Body}
}

func newConsumer(t *testing.T, handlers ...TaskHandler) *taskConsumer {
	c, err := NewTaskConsumer()
	require.NoError(t, err)
	c.Register(handlers...)
	return c.(*taskConsumer)
}

func TestProduceAndConsume(t *testing.T) {
	param, err := NewParam("greet", map[string]string{"name": "alice"})
	require.NoError(t, err)
	msgs := publishings(t, param)
	require.Len(t, msgs, 1)
	assert.Equal(t, amqp.Persistent, msgs[0].DeliveryMode)

	var got string
	c := newConsumer(t, funcHandler{name: "greet", fn: func(_ context.Context, p *Param) error {
		var body struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(p.Data, &body); err != nil {
			return err
		}
		got = body.Name
		return nil
	}})
	ack := &recordAck{}
	require.NoError(t, c.settle(context.Background(), delivery(msgs[0]), ack))
	assert.Equal(t, "alice", got)
	assert.Equal(t, 1, ack.acked)
	assert.Empty(t, ack.rejected)
}

func TestSettleRejects(t *testing.T) {
	transient := errors.New("database unavailable")
	c := newConsumer(t,
		funcHandler{name: "retry", fn: func(context.Context, *Param) error { return transient }},
		funcHandler{name: "drop", fn: func(context.Context, *Param) error { return Discard(transient) }},
	)
	retry, err := NewParam("retry", nil)
	require.NoError(t, err)
	drop, err := NewParam("drop", nil)
	require.NoError(t, err)
	unknown, err := NewParam("unknown", nil)
	require.NoError(t, err)
	msgs := publishings(t, retry, drop, unknown)
	require.Len(t, msgs, 3)

	cases := []struct {
		name    string
		d       *amqp.Delivery
		requeue bool
	}{
		{"handler error is requeued", delivery(msgs[0]), true},
		{"discarded error is dropped", delivery(msgs[1]), false},
		{"unknown task type is dropped", delivery(msgs[2]), false},
		{"malformed body is dropped", &amqp.Delivery{Body: []byte("{not json")}, false},
		{"missing task type is dropped", &amqp.Delivery{Body: []byte(`{"data":{}}`)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ack := &recordAck{}
			require.NoError(t, c.settle(context.Background(), tc.d, ack))
			assert.Zero(t, ack.acked)
			assert.Equal(t, []bool{tc.requeue}, ack.rejected)
		})
	}
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard(nil))
	base := errors.New("bad payload")
	err := Discard(base)
	assert.True(t, IsDiscarded(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsDiscarded(base))
}

func TestSubscribeStopsWithContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := NewMockChannel(ctrl)
	deliveries := make(chan amqp.Delivery)
	ctx, cancel := context.WithCancel(context.Background())
	ch.EXPECT().Consume("tasks", gomock.Any(), false, false, false, false, nil).
		DoAndReturn(func(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
			cancel()
			return deliveries, nil
		})
	c := newConsumer(t)
	assert.NoError(t, c.Subscribe(ctx, ch, "tasks"))
}

func TestParamPoolResets(t *testing.T) {
	p := Get()
	p.TaskType = "x"
	p.Metadata["k"] = "v"
	p.Data = append(p.Data, '1')
	Put(p)
	q := Get()
	assert.Empty(t, q.TaskType)
	assert.Empty(t, q.Metadata)
	assert.Empty(t, q.Data)
}

func TestDefaultMarshal(t *testing.T) {
	msg := message.NewMessage("id-1", []byte(`{}`))
	msg.Metadata.Set("trace_id", "t-1")
	p, err := DefaultMarshal{}.Marshal(msg)
	require.NoError(t, err)
	assert.Equal(t, "id-1", p.MessageId)
	assert.Equal(t, amqp.Persistent, p.DeliveryMode)

	got, err := DefaultMarshal{}.Unmarshal(delivery(p))
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.UUID)
	assert.Equal(t, "t-1", got.Metadata.Get("trace_id"))

	_, err = DefaultMarshal{}.Unmarshal(&amqp.Delivery{Headers: amqp.Table{"n": int32(1)}})
	assert.Error(t, err)
}
