package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once                 sync.Once
	recordsEmitted       prom.Counter
	commitsSkipped       *prom.CounterVec
	filesSkipped         *prom.CounterVec
	patchDuration        prom.Histogram
	contextDuration       prom.Histogram
	contextMinerPaths    prom.Counter
	runInProgress        prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics. Each call
// registers a fresh set of collectors, so calling it twice with the same
// registry panics on the duplicate registration.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.recordsEmitted = prom.NewCounter(prom.CounterOpts{
			Namespace: "adlminer",
			Name:      "records_emitted_total",
			Help:      "Total training records written to the sink",
		})
		pr.commitsSkipped = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "adlminer",
			Name:      "commits_skipped_total",
			Help:      "Commits excluded from the mined dataset, by reason",
		}, []string{"reason"})
		pr.filesSkipped = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "adlminer",
			Name:      "files_skipped_total",
			Help:      "Files dropped from a record's diffs, by reason",
		}, []string{"reason"})
		pr.patchDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "adlminer",
			Name:      "patch_duration_seconds",
			Help:      "Time spent computing a commit's patch against its first parent",
			Buckets:   prom.DefBuckets,
		})
		pr.contextDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "adlminer",
			Name:      "context_analysis_duration_seconds",
			Help:      "Time spent deriving context signals for one record",
			Buckets:   prom.DefBuckets,
		})
		pr.contextMinerPaths = prom.NewCounter(prom.CounterOpts{
			Namespace: "adlminer",
			Name:      "context_miner_paths_total",
			Help:      "Total code paths analyzed by the context miner",
		})
		pr.runInProgress = prom.NewGauge(prom.GaugeOpts{
			Namespace: "adlminer",
			Name:      "run_in_progress",
			Help:      "1 while a mining run is active, 0 otherwise",
		})
		reg.MustRegister(pr.recordsEmitted, pr.commitsSkipped, pr.filesSkipped, pr.patchDuration, pr.contextDuration, pr.contextMinerPaths, pr.runInProgress)
	})
	return pr
}

func (p *PrometheusRecorder) IncRecordsEmitted() {
	if p == nil || p.recordsEmitted == nil {
		return
	}
	p.recordsEmitted.Inc()
}

func (p *PrometheusRecorder) IncCommitsSkipped(reason SkipReason) {
	if p == nil || p.commitsSkipped == nil {
		return
	}
	p.commitsSkipped.WithLabelValues(string(reason)).Inc()
}

func (p *PrometheusRecorder) IncFilesSkipped(reason SkipReason) {
	if p == nil || p.filesSkipped == nil {
		return
	}
	p.filesSkipped.WithLabelValues(string(reason)).Inc()
}

func (p *PrometheusRecorder) ObservePatchDuration(d time.Duration) {
	if p == nil || p.patchDuration == nil {
		return
	}
	p.patchDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveContextAnalysisDuration(d time.Duration) {
	if p == nil || p.contextDuration == nil {
		return
	}
	p.contextDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncContextMinerPaths(n int) {
	if p == nil || p.contextMinerPaths == nil || n <= 0 {
		return
	}
	p.contextMinerPaths.Add(float64(n))
}

func (p *PrometheusRecorder) SetRunInProgress(inProgress bool) {
	if p == nil || p.runInProgress == nil {
		return
	}
	if inProgress {
		p.runInProgress.Set(1)
	} else {
		p.runInProgress.Set(0)
	}
}
