package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	updatesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_received_total",
			Help: "Inbound webhook updates by kind (command, callback, text, malformed).",
		},
		[]string{"kind"},
	)

	dispatchErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_dispatch_errors_total",
			Help: "Updates whose dispatch failed and was swallowed at the boundary.",
		},
	)

	dispatchSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bot_dispatch_seconds",
			Help:    "Dispatch latency distribution per webhook update.",
			Buckets: prometheus.DefBuckets,
		},
	)

	outboundRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_outbound_requests_total",
			Help: "Outbound bot API calls per endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)
)

func init() {
	register(updatesReceived, dispatchErrors, dispatchSeconds, outboundRequests)
}

func IncUpdateReceived(kind string)  { updatesReceived.WithLabelValues(kind).Inc() }
func IncDispatchError()              { dispatchErrors.Inc() }
func ObserveDispatch(seconds float64) { dispatchSeconds.Observe(seconds) }

func IncOutbound(endpoint string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	outboundRequests.WithLabelValues(endpoint, outcome).Inc()
}
