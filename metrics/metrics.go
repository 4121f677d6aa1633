// Package metrics holds the Prometheus collectors for the game server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "labyrinth"

var (
	// SessionsActive is the number of sessions held in memory.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sessions",
		Name:      "active",
		Help:      "Number of game sessions held in memory",
	})

	// SessionsCreated counts new sessions. Labels: config
	SessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sessions",
		Name:      "created_total",
		Help:      "Total game sessions created",
	}, []string{"config"})

	// Commands counts player commands. Labels: action (insert_tile, move_player),
	// result (ok or the rejection class)
	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "game",
		Name:      "commands_total",
		Help:      "Total player commands by action and result",
	}, []string{"action", "result"})

	// CommandDuration measures the time a command spends queued and applied.
	CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "game",
		Name:      "command_duration_seconds",
		Help:      "Time to apply a player command, queueing included",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"action"})

	// ItemsFound counts turned over item cards.
	ItemsFound = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "game",
		Name:      "items_found_total",
		Help:      "Total item cards found",
	})

	// GamesWon counts finished games.
	GamesWon = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "game",
		Name:      "won_total",
		Help:      "Total games that ended with a winner",
	})

	// PersistenceErrors counts failed session saves. Labels: operation
	PersistenceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sessions",
		Name:      "persistence_errors_total",
		Help:      "Total session persistence failures",
	}, []string{"operation"})

	// WebSocketClients is the number of connected websocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "websocket",
		Name:      "clients",
		Help:      "Number of connected websocket clients",
	})

	// HTTPRequests counts API requests. Labels: method, route, code
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status code",
	}, []string{"method", "route", "code"})
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
