package prom

import (
	"fmt"
	"sync"

	xhttp "github.com/nimasrn/hero-points/pkg/http"
	"github.com/nimasrn/hero-points/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemScan   = "scan"
	SystemLedger = "ledger"
	SystemUID    = "uid"
)

const (
	MetricScanRecorded            = "recorded_total"
	MetricContributions           = "contributions_total"
	MetricContributionAmount      = "contribution_amount_total"
	MetricUIDGenerationAttempts   = "generation_attempts"
	MetricUIDConflicts            = "conflicts_total"
	MetricIdempotentReplays       = "idempotent_replays_total"
	MetricLeaderboardCacheLookups = "leaderboard_cache_lookups_total"
)

const (
	TypeCounter      = "counter"
	TypeCounterVec   = "counterVec"
	TypeHistogram    = "histogram"
	TypeHistogramVec = "histogramVec"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var MetricCollectionCounters = make(map[string]prometheus.Counter)
var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionHistogram = make(map[string]prometheus.Histogram)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

// uid generation rarely needs more than a couple of draws, the tail shows
// namespace saturation
var uidAttemptBuckets = []float64{1, 2, 3, 5, 10, 25, 50, 100}

func Create(host string, env string, nameSpace string) error {
	defaultLabels = make(prometheus.Labels)
	defaultLabels["env"] = env
	defaultLabels["instance"] = host
	namespace = nameSpace

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(createCounter(SystemScan, MetricScanRecorded, "scan events appended"))
	hasError(createCounterVec(SystemLedger, MetricContributions, "contributions applied", []string{"source"}))
	hasError(createCounterVec(SystemLedger, MetricContributionAmount, "sum of applied contribution amounts", []string{"source"}))
	hasError(createCounter(SystemLedger, MetricIdempotentReplays, "requests answered from a stored idempotent response"))
	hasError(createCounterVec(SystemLedger, MetricLeaderboardCacheLookups, "leaderboard cache lookups", []string{"result"}))
	hasError(createHistogram(SystemUID, MetricUIDGenerationAttempts, "candidates drawn per generated uid", uidAttemptBuckets))
	hasError(createCounterVec(SystemUID, MetricUIDConflicts, "uid binds rejected or retried on conflict", []string{"path"}))

	MetricSystemEnabled = err == nil
	return err
}

func CreateMetric(metricType, metricSubsystem, metricName string, labelsValues ...string) error {
	switch metricType {
	case TypeCounter:
		return createCounter(metricSubsystem, metricName, "")
	case TypeCounterVec:
		return createCounterVec(metricSubsystem, metricName, "", labelsValues)
	case TypeHistogram:
		return createHistogram(metricSubsystem, metricName, "", prometheus.DefBuckets)
	case TypeHistogramVec:
		return createHistogramVec(metricSubsystem, metricName, "", labelsValues)
	}
	return fmt.Errorf("metric type %s is not defined", metricType)
}

func ListenAndServer(addr string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s := xhttp.CreateServer(xhttp.DefaultServerConfig)
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "addr", addr, "url", url)
	if err := s.ListenAndServe(addr); err != nil {
		logger.Error("[metrics-server] http listen error", "error", err)
	}
}

func createCounter(subsystem, name, help string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionCounters[subsystem+name] = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: defaultLabels,
	})
	return prometheus.Register(MetricCollectionCounters[subsystem+name])
}

func createCounterVec(subsystem, name, help string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionCounterVec[subsystem+name] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: defaultLabels,
	}, labels)
	return prometheus.Register(MetricCollectionCounterVec[subsystem+name])
}

func createHistogram(subsystem, name, help string, buckets []float64) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionHistogram[subsystem+name] = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: defaultLabels,
		Buckets:     buckets,
	})
	return prometheus.Register(MetricCollectionHistogram[subsystem+name])
}

func createHistogramVec(subsystem, name, help string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionHistogramVec[subsystem+name] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: defaultLabels,
	}, labels)
	return prometheus.Register(MetricCollectionHistogramVec[subsystem+name])
}

func IncCounter(subsystem, name string) {
	AddCounter(subsystem, name, 1)
}

func AddCounter(subsystem, name string, number float64) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounters[subsystem+name]; ok {
		v.Add(number)
		return
	}
	logger.Warn("[metrics-server] counter not found", "subsystem", subsystem, "name", name)
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounterVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddHistogram(subsystem, name string, number float64) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionHistogram[subsystem+name]; ok {
		v.Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram not found", "subsystem", subsystem, "name", name)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionHistogramVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

func IncScanRecorded() {
	IncCounter(SystemScan, MetricScanRecorded)
}

func AddContribution(source string, amount float64) {
	IncCounterVec(SystemLedger, MetricContributions, source)
	AddCounterVec(SystemLedger, MetricContributionAmount, amount, source)
}

func IncIdempotentReplay() {
	IncCounter(SystemLedger, MetricIdempotentReplays)
}

func IncLeaderboardCache(result string) {
	IncCounterVec(SystemLedger, MetricLeaderboardCacheLookups, result)
}

func ObserveUIDGenerationAttempts(attempts int) {
	AddHistogram(SystemUID, MetricUIDGenerationAttempts, float64(attempts))
}

func IncUIDConflict(path string) {
	IncCounterVec(SystemUID, MetricUIDConflicts, path)
}
