package runtime

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service counters, registered once on the default
// registry and exposed via /metrics.
type Metrics struct {
	Searches     prometheus.Counter
	ZeroResults  prometheus.Counter
	ResultClicks prometheus.Counter
	Suggestions  prometheus.Counter
	IndexReloads *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics returns the singleton metrics set.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			Searches: promauto.NewCounter(prometheus.CounterOpts{
				Name: "sitesearch_searches_total",
				Help: "Committed searches.",
			}),
			ZeroResults: promauto.NewCounter(prometheus.CounterOpts{
				Name: "sitesearch_searches_zero_results_total",
				Help: "Searches that matched nothing.",
			}),
			ResultClicks: promauto.NewCounter(prometheus.CounterOpts{
				Name: "sitesearch_result_clicks_total",
				Help: "Result click-throughs.",
			}),
			Suggestions: promauto.NewCounter(prometheus.CounterOpts{
				Name: "sitesearch_suggestions_total",
				Help: "Suggestion lists served.",
			}),
			IndexReloads: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "sitesearch_index_reloads_total",
				Help: "Index reload attempts by outcome.",
			}, []string{"outcome"}),
		}
	})
	return metrics
}

// TrackEvent maps session analytics events onto counters. Unknown events are
// ignored so the sink never needs updating in lockstep with the session.
func (m *Metrics) TrackEvent(name string, _ map[string]string) {
	switch name {
	case "search":
		m.Searches.Inc()
	case "search_zero_results":
		m.ZeroResults.Inc()
	case "result_click":
		m.ResultClicks.Inc()
	case "suggestions":
		m.Suggestions.Inc()
	}
}
