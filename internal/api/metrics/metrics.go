// Package metrics defines and registers the client's Prometheus metrics. It is
// the single source of truth for metric names, labels, and help strings.
//
// All metrics register with the default registry on import; cmd/cabinet
// exposes them over /metrics when METRICS_ADDR is set.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cabinet"

// ── Gateway ───────────────────────────────────────────────────────────────────

// GatewayRequestsTotal counts backend calls.
// Labels:
//   - endpoint: backend endpoint without parameters (e.g. "all-ingredients")
//   - method:   HTTP method
//   - outcome:  "ok", "http_error" (non-2xx, body still decoded) or "transport_error"
var GatewayRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Total number of backend calls issued by the gateway.",
	},
	[]string{"endpoint", "method", "outcome"},
)

// GatewayRequestDuration measures backend round trips.
var GatewayRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Duration of backend calls, including body decoding.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"endpoint", "method"},
)

// GatewaySkippedTotal counts authenticated reads skipped for lack of a
// well-formed session token.
var GatewaySkippedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_skipped_total",
		Help:      "Total number of backend calls skipped because no valid session token was stored.",
	},
	[]string{"endpoint"},
)

// ── Ingredient collections ───────────────────────────────────────────────────

// OptimisticMutationsTotal counts local mutations applied before persistence.
// Label:
//   - kind: "quantity", "favorite" or "delete"
var OptimisticMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "optimistic_mutations_total",
		Help:      "Total number of optimistic local ingredient mutations.",
	},
	[]string{"kind"},
)

// MutationsRejectedTotal counts mutations dropped by local validation.
var MutationsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_rejected_total",
		Help:      "Total number of ingredient mutations rejected before any network call.",
	},
	[]string{"reason"},
)

// PersistenceFailuresTotal counts fire-and-forget writes that failed.
var PersistenceFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persistence_failures_total",
		Help:      "Total number of background persistence calls that failed.",
	},
	[]string{"task"},
)

// DispatcherQueueDepth tracks pending tasks per dispatcher worker.
var DispatcherQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dispatcher_queue_depth",
		Help:      "Current number of persistence tasks pending in each dispatcher worker.",
	},
	[]string{"worker_id"},
)

// ── Search ───────────────────────────────────────────────────────────────────

// SearchCommitsTotal counts debounced search commits (one per quiet period).
var SearchCommitsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_commits_total",
		Help:      "Total number of debounced search text commits.",
	},
)

// ── Shopping list ────────────────────────────────────────────────────────────

// ShoppingCommandsTotal counts shopping list commands by lifecycle stage.
// Labels:
//   - kind:  "viewList" or "addIngredients"
//   - stage: "queued", "executed", "failed" or "dropped"
var ShoppingCommandsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shopping_commands_total",
		Help:      "Total number of shopping list widget commands.",
	},
	[]string{"kind", "stage"},
)

// ShoppingQueueDepth is the number of commands waiting for the widget.
var ShoppingQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "shopping_queue_depth",
		Help:      "Commands waiting for the shopping list widget to become ready.",
	},
)

// ── Route guard ──────────────────────────────────────────────────────────────

// GuardOutcomesTotal counts guard resolutions.
// Label:
//   - state: "authenticated" or "unauthenticated"
var GuardOutcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_outcomes_total",
		Help:      "Total number of route guard resolutions by final state.",
	},
	[]string{"state"},
)
