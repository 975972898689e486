package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"marketplace/pkg/json"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithJSON(), WithWriter(&buf), WithServerName("marketplace"), WithLevel("warn"))
	l.Info("dropped")
	l.Warn("kept", zap.String("resource_id", "r1"))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "marketplace", line["service_name"])
	assert.Equal(t, "r1", line["resource_id"])
}

func TestDebugSwitch(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithWriter(&buf), WithLevel("error"))
	SetDebug(true)
	defer SetDebug(false)
	l.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestFromWith(t *testing.T) {
	ctx := context.Background()
	assert.NotNil(t, From(ctx))

	l := zap.NewExample()
	ctx = With(ctx, l)
	assert.Same(t, l, From(ctx))
	assert.Same(t, l, From(Detach(ctx)))
}
