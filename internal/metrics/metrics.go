// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/venue-cli/internal/webcache"
)

var (
	stageOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "venue_stage_outcomes_total",
		Help: "Venues processed per enrichment stage by outcome",
	}, []string{"stage", "outcome"})

	websiteSources = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "venue_website_resolutions_total",
		Help: "Website lookups by the step that answered",
	}, []string{"source"})

	pageFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "venue_page_fetches_total",
		Help: "Contact page fetches by method",
	}, []string{"method"})

	cacheEntriesDesc = prometheus.NewDesc(
		"venue_website_cache_entries",
		"Entries in the website cache",
		nil, nil,
	)
	cacheLookupsDesc = prometheus.NewDesc(
		"venue_website_cache_lookups_total",
		"Website cache lookups by result",
		[]string{"result"}, nil,
	)
)

// CacheSource reports cache usage.
type CacheSource interface {
	Summary() webcache.Summary
}

// CacheCollector reads the current website cache on each scrape.
type CacheCollector struct {
	mu  sync.RWMutex
	src CacheSource
}

// Describe sends the metric descriptors to the channel.
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cacheEntriesDesc
	ch <- cacheLookupsDesc
}

// Collect emits the cache size and hit/miss counters.
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	src := c.src
	c.mu.RUnlock()
	if src == nil {
		return
	}
	s := src.Summary()
	ch <- prometheus.MustNewConstMetric(cacheEntriesDesc, prometheus.GaugeValue, float64(s.TotalCached))
	ch <- prometheus.MustNewConstMetric(cacheLookupsDesc, prometheus.CounterValue, float64(s.Hits), "hit")
	ch <- prometheus.MustNewConstMetric(cacheLookupsDesc, prometheus.CounterValue, float64(s.Misses), "miss")
}

func (c *CacheCollector) set(src CacheSource) {
	c.mu.Lock()
	c.src = src
	c.mu.Unlock()
}

var (
	cacheCollector = &CacheCollector{}
	initOnce       sync.Once
)

// Init registers all collectors with the default registry. Safe to call
// more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(stageOutcomes, websiteSources, pageFetches, cacheCollector)
	})
}

// ObserveCache points the cache collector at src. Nil stops reporting.
func ObserveCache(src CacheSource) {
	cacheCollector.set(src)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordStage counts one venue outcome for a stage.
func RecordStage(stage, outcome string) {
	stageOutcomes.WithLabelValues(stage, outcome).Inc()
}

// RecordWebsite counts a website lookup answered by source. An empty
// source is recorded as "none".
func RecordWebsite(source string) {
	if source == "" {
		source = "none"
	}
	websiteSources.WithLabelValues(source).Inc()
}

// RecordFetch counts a page fetch by method.
func RecordFetch(method string) {
	pageFetches.WithLabelValues(method).Inc()
}
