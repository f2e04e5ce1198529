package prometheus

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goArgon2 "github.com/MrEthical07/goArgon2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	snapshot goArgon2.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goArgon2.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                      { return f.dropped }

func scrape(t *testing.T, exp *PrometheusExporter) (string, *http.Response) {
	t.Helper()

	srv := httptest.NewServer(exp.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body), resp
}

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goArgon2.MetricsSnapshot{
			Counters:   map[goArgon2.MetricID]uint64{},
			Histograms: map[goArgon2.MetricID][]uint64{},
		},
	})

	require.Equal(t, 0, testutil.CollectAndCount(exp))
}

func TestScrapeIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goArgon2.MetricsSnapshot{
			Counters: map[goArgon2.MetricID]uint64{
				goArgon2.MetricPowFound: 7,
			},
			Histograms: map[goArgon2.MetricID][]uint64{
				goArgon2.MetricPowLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out, resp := scrape(t, exp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	require.Contains(t, out, "goargon2_pow_found_total 7")
	require.Contains(t, out, `goargon2_pow_latency_seconds_bucket{le="0.01"} 1`)
	require.Contains(t, out, `goargon2_pow_latency_seconds_bucket{le="+Inf"} 36`)
	require.Contains(t, out, "goargon2_pow_latency_seconds_count 36")
	require.Contains(t, out, "goargon2_audit_dropped_total 2")
	require.False(t, strings.Contains(out, "goargon2_hash_latency_seconds_count"), "missing histogram should not be exported")
}

func TestCollectorAgainstEngine(t *testing.T) {
	cfg := goArgon2.DefaultConfig()
	cfg.Hash.Time = 1
	cfg.Hash.Memory = 64
	cfg.Metrics.Enabled = true

	engine, err := goArgon2.New().WithConfig(cfg).Build()
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.Hash(context.Background(), goArgon2.HashOptions{Password: "pw"})
	require.NoError(t, err)

	exp := NewPrometheusExporter(engine)
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(exp))

	problems, err := testutil.GatherAndLint(reg)
	require.NoError(t, err)
	require.Empty(t, problems)

	err = testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP goargon2_hash_success_total Successful hash operations.
# TYPE goargon2_hash_success_total counter
goargon2_hash_success_total 1
`), "goargon2_hash_success_total")
	require.NoError(t, err)
}

func BenchmarkCollect(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goArgon2.MetricsSnapshot{
			Counters: map[goArgon2.MetricID]uint64{
				goArgon2.MetricHashSuccess:     1000,
				goArgon2.MetricVerifyMismatch:  40,
				goArgon2.MetricPowFound:        800,
				goArgon2.MetricPowAttempts:     90000,
				goArgon2.MetricChallengeIssued: 800,
			},
			Histograms: map[goArgon2.MetricID][]uint64{
				goArgon2.MetricPowLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = testutil.CollectAndCount(exp)
	}
}
