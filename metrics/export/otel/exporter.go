package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	goArgon2 "github.com/MrEthical07/goArgon2"
	"github.com/MrEthical07/goArgon2/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

const (
	powRunningName     = "goargon2_pow_running"
	powInflightName    = "goargon2_pow_inflight_attempts"
	powHashRateName    = "goargon2_pow_hashes_per_second"
	bucketSuffixPrefix = "_bucket_le_"
)

type metricsSource interface {
	MetricsSnapshot() goArgon2.MetricsSnapshot
	AuditDropped() uint64
}

// progressSource is implemented by *goArgon2.Engine. Sources without it get
// no live search gauges.
type progressSource interface {
	PowProgress() goArgon2.PowProgress
	PowRunning() bool
}

type histogramGauges struct {
	id      goArgon2.MetricID
	buckets []metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

type liveGauges struct {
	source   progressSource
	running  metric.Int64ObservableGauge
	inflight metric.Int64ObservableGauge
	rate     metric.Float64ObservableGauge
}

// OTelExporter mirrors engine snapshots into observable instruments.
// Histograms become one cumulative gauge per bucket plus a count gauge; an
// engine source also reports the progress of the running PoW search.
type OTelExporter struct {
	source       metricsSource
	counters     map[goArgon2.MetricID]metric.Int64ObservableCounter
	histograms   []histogramGauges
	auditDropped metric.Int64ObservableCounter
	live         *liveGauges

	observables  []metric.Observable
	registration metric.Registration
}

// NewOTelExporter registers instruments on meter that read from engine.
func NewOTelExporter(meter metric.Meter, engine *goArgon2.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource is NewOTelExporter for any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:   source,
		counters: make(map[goArgon2.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
	}
	if err := e.registerCounters(meter); err != nil {
		return nil, err
	}
	if err := e.registerHistograms(meter); err != nil {
		return nil, err
	}
	if ps, ok := source.(progressSource); ok {
		if err := e.registerLive(meter, ps); err != nil {
			return nil, err
		}
	}

	reg, err := meter.RegisterCallback(e.observe, e.observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *OTelExporter) registerCounters(meter metric.Meter) error {
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters[def.ID] = ins
		e.observables = append(e.observables, ins)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return fmt.Errorf("create audit dropped counter: %w", err)
	}
	e.auditDropped = dropped
	e.observables = append(e.observables, dropped)
	return nil
}

func (e *OTelExporter) registerHistograms(meter metric.Meter) error {
	for _, def := range internaldefs.HistogramDefs {
		g := histogramGauges{
			id:      def.ID,
			buckets: make([]metric.Int64ObservableGauge, len(internaldefs.HistogramBounds)+1),
		}
		for i := range g.buckets {
			name := def.Name + bucketSuffixPrefix + boundSuffix(i)
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			g.buckets[i] = ins
			e.observables = append(e.observables, ins)
		}

		count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return fmt.Errorf("create histogram count gauge %s_count: %w", def.Name, err)
		}
		g.count = count
		e.observables = append(e.observables, count)
		e.histograms = append(e.histograms, g)
	}
	return nil
}

func (e *OTelExporter) registerLive(meter metric.Meter, ps progressSource) error {
	running, err := meter.Int64ObservableGauge(powRunningName,
		metric.WithDescription("1 while a PoW search is running."))
	if err != nil {
		return fmt.Errorf("create %s: %w", powRunningName, err)
	}
	inflight, err := meter.Int64ObservableGauge(powInflightName,
		metric.WithDescription("Attempts made by the current or last PoW search."))
	if err != nil {
		return fmt.Errorf("create %s: %w", powInflightName, err)
	}
	rate, err := meter.Float64ObservableGauge(powHashRateName,
		metric.WithDescription("Hash rate of the current or last PoW search."),
		metric.WithUnit("{hash}/s"))
	if err != nil {
		return fmt.Errorf("create %s: %w", powHashRateName, err)
	}

	e.live = &liveGauges{source: ps, running: running, inflight: inflight, rate: rate}
	e.observables = append(e.observables, running, inflight, rate)
	return nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	for id, ins := range e.counters {
		o.ObserveInt64(ins, int64(snap.Counters[id]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))

	for _, g := range e.histograms {
		raw, ok := snap.Histograms[g.id]
		if !ok {
			continue
		}
		cum := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, ins := range g.buckets {
			o.ObserveInt64(ins, int64(cum[i]))
		}
		o.ObserveInt64(g.count, int64(cum[len(cum)-1]))
	}

	if e.live != nil {
		p := e.live.source.PowProgress()
		var running int64
		if e.live.source.PowRunning() {
			running = 1
		}
		o.ObserveInt64(e.live.running, running)
		o.ObserveInt64(e.live.inflight, int64(p.Attempts))
		o.ObserveFloat64(e.live.rate, p.HashesPerSecond)
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

// boundSuffix renders bucket i as an instrument-safe suffix such as 0_05 or inf.
func boundSuffix(i int) string {
	if i >= len(internaldefs.HistogramBounds) {
		return "inf"
	}
	return strings.ReplaceAll(strconv.FormatFloat(internaldefs.HistogramBounds[i], 'f', -1, 64), ".", "_")
}
