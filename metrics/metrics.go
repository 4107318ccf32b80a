// Package metrics holds the Prometheus collectors shared by the radio, the host and the daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	Commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xbeeio",
			Name:      "commands_total",
			Help:      "AT commands sent to radios by command and outcome.",
		},
		[]string{"command", "result"},
	)

	Frames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xbeeio",
			Name:      "frames_received_total",
			Help:      "API frames decoded from the serial link by frame type.",
		},
		[]string{"type"},
	)

	EntityUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xbeeio",
			Name:      "entity_updates_total",
			Help:      "Entity refreshes by entity and outcome.",
		},
		[]string{"entity", "result"},
	)
)

func init() {
	prometheus.MustRegister(Commands, Frames, EntityUpdates)
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}

	return ResultOK
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
