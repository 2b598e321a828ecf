// metrics — счётчики Prometheus для фид-ядра.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome-метки фетчей ленты.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale" // ответ пришёл после смены конфигурации и отброшен
	OutcomeCache = "cache" // страница отдана из локального кэша без сети
)

// Metrics — набор коллекторов подсистемы. Каждый экземпляр регистрируется
// в собственном Registry, чтобы несколько клиентов в одном процессе не
// конфликтовали именами.
type Metrics struct {
	registry *prometheus.Registry

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	FeedFetches *prometheus.CounterVec
	Rollbacks   prometheus.Counter
}

// New создаёт и регистрирует коллекторы.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journal_feed_cache_hits_total",
			Help: "Cache store hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journal_feed_cache_misses_total",
			Help: "Cache store misses (absent, expired or malformed).",
		}),
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_feed_fetches_total",
			Help: "Feed page fetches by outcome.",
		}, []string{"outcome"}),
		Rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journal_feed_optimistic_rollbacks_total",
			Help: "Optimistic mutations reverted after a failed request.",
		}),
	}

	m.registry.MustRegister(m.CacheHits, m.CacheMisses, m.FeedFetches, m.Rollbacks)

	return m
}

// Gatherer отдаёт реестр для экспозиции наружу (promhttp и т.п.).
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
