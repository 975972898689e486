package prometheus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCollector(t *testing.T) {
	c := NewStatusCollector(map[string]func() bool{
		"redis": func() bool { return false },
		"amqp":  func() bool { return true },
	})
	expected := `
# HELP dependency_status status of a dependency, 0 when healthy
# TYPE dependency_status gauge
dependency_status{name="amqp"} 0
dependency_status{name="redis"} 1
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}

func TestConnectionMetric(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sockstat")
	require.NoError(t, os.WriteFile(path, []byte("sockets: used 200\nTCP: inuse 10\n"), 0o600))
	h := NewConnectionMetricHandler("marketplace")
	h.sockstat = path
	assert.Equal(t, 3, testutil.CollectAndCount(h))

	h.sockstat = filepath.Join(t.TempDir(), "missing")
	assert.Equal(t, 0, testutil.CollectAndCount(h))
}

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg, "marketplace", nil))
	assert.Error(t, Register(reg, "marketplace", nil))
}
