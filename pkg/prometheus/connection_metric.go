package prometheus

import (
	"bufio"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var serviceReceiveConn int64

// ConnectionMetricHandler reports the sockets of the host against the
// connections this process accepted.
type ConnectionMetricHandler struct {
	ServiceConnTotal    *prometheus.Desc
	ServiceReceiveConn  *prometheus.Desc
	ServiceReceiveRatio *prometheus.Desc
	sockstat            string
}

func NewConnectionMetricHandler(serviceName string) *ConnectionMetricHandler {
	labels := prometheus.Labels{"service_name": serviceName}
	return &ConnectionMetricHandler{
		ServiceConnTotal:    prometheus.NewDesc("service_conn_total", "sockets in use on the host", nil, labels),
		ServiceReceiveConn:  prometheus.NewDesc("service_receive_conn", "open connections accepted by the service", nil, labels),
		ServiceReceiveRatio: prometheus.NewDesc("service_receive_ratio", "accepted connections per hundred host sockets", nil, labels),
		sockstat:            "/proc/net/sockstat",
	}
}

func (cp *ConnectionMetricHandler) Describe(ch chan<- *prometheus.Desc) {
	ch <- cp.ServiceConnTotal
	ch <- cp.ServiceReceiveConn
	ch <- cp.ServiceReceiveRatio
}

func (cp *ConnectionMetricHandler) Collect(ch chan<- prometheus.Metric) {
	socketsNum, ok := cp.sockets()
	if !ok {
		return
	}
	ch <- prometheus.MustNewConstMetric(cp.ServiceConnTotal, prometheus.GaugeValue, socketsNum)
	if socketsNum == 0 {
		return
	}
	receiveConnCount := atomic.LoadInt64(&serviceReceiveConn)
	ch <- prometheus.MustNewConstMetric(cp.ServiceReceiveConn, prometheus.GaugeValue, float64(receiveConnCount))
	ch <- prometheus.MustNewConstMetric(cp.ServiceReceiveRatio, prometheus.GaugeValue,
		float64(receiveConnCount*100/int64(socketsNum)))
}

// sockets reads the "sockets: used N" line; it is missing outside linux.
func (cp *ConnectionMetricHandler) sockets() (float64, bool) {
	file, err := os.Open(cp.sockstat)
	if err != nil {
		return 0, false
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "sockets:") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			return 0, false
		}
		n, err := strconv.ParseFloat(parts[len(parts)-1], 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// RegisterHttpConnCountMetric counts the connections srv holds open.
func RegisterHttpConnCountMetric(srv *http.Server) {
	srv.ConnState = func(conn net.Conn, state http.ConnState) {
		switch state {
		case http.StateNew:
			atomic.AddInt64(&serviceReceiveConn, 1)
		case http.StateClosed, http.StateHijacked:
			atomic.AddInt64(&serviceReceiveConn, -1)
		}
	}
}
