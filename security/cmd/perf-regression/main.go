// Command perf-regression compares two `go test -bench` outputs and fails
// when a tracked benchmark got slower than the allowed ratio.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/jessevdk/go-flags"
)

var trackedMetrics = map[string][]string{
	"BenchmarkComputePowExhausted":        {"ns/op", "allocs/op"},
	"BenchmarkMetricsAddAttemptsParallel": {"ns/op"},
	"BenchmarkCollect":                    {"ns/op", "allocs/op"},
}

type options struct {
	Baseline  string  `long:"baseline" required:"true" description:"Path to baseline benchmark output"`
	Candidate string  `long:"candidate" required:"true" description:"Path to candidate benchmark output"`
	Threshold float64 `long:"threshold" default:"0.30" description:"Maximum allowed regression ratio (0.30 = +30%)"`
}

type sampleSet map[string]map[string][]float64

func main() {
	opts := options{}
	if _, err := flags.Parse(&opts); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}
	if opts.Threshold < 0 {
		fmt.Fprintln(os.Stderr, "--threshold must be >= 0")
		os.Exit(2)
	}

	baseline, err := parseBenchmarkFile(opts.Baseline)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse baseline: %v\n", err)
		os.Exit(1)
	}
	candidate, err := parseBenchmarkFile(opts.Candidate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse candidate: %v\n", err)
		os.Exit(1)
	}

	failures := compare(os.Stdout, baseline, candidate, opts.Threshold)
	if len(failures) > 0 {
		fmt.Fprintln(os.Stderr, "performance regression threshold exceeded:")
		for _, failure := range failures {
			fmt.Fprintf(os.Stderr, "  - %s\n", failure)
		}
		os.Exit(1)
	}
}

// compare prints one line per tracked metric to w and returns the failures
// in a stable order.
func compare(w io.Writer, baseline, candidate sampleSet, threshold float64) []string {
	benchmarks := make([]string, 0, len(trackedMetrics))
	for name := range trackedMetrics {
		benchmarks = append(benchmarks, name)
	}
	sort.Strings(benchmarks)

	var failures []string
	fmt.Fprintln(w, "perf regression check:")
	fmt.Fprintln(w, "benchmark metric baseline candidate delta")

	for _, benchmark := range benchmarks {
		for _, metric := range trackedMetrics[benchmark] {
			baseSamples := baseline[benchmark][metric]
			candidateSamples := candidate[benchmark][metric]
			if len(baseSamples) == 0 || len(candidateSamples) == 0 {
				failures = append(failures, fmt.Sprintf("missing samples for %s %s", benchmark, metric))
				continue
			}

			baseMedian := median(baseSamples)
			candidateMedian := median(candidateSamples)
			if baseMedian <= 0 {
				// Zero allocs/op in the baseline only fails if the candidate allocates.
				if candidateMedian > 0 {
					failures = append(failures, fmt.Sprintf("%s %s rose from 0 to %.3f", benchmark, metric, candidateMedian))
				}
				continue
			}

			delta := (candidateMedian - baseMedian) / baseMedian
			fmt.Fprintf(w, "%s %s %.3f %.3f %+0.2f%%\n", benchmark, metric, baseMedian, candidateMedian, delta*100)
			if delta > threshold {
				failures = append(failures, fmt.Sprintf("%s %s regressed by %+0.2f%% (limit %+0.2f%%)", benchmark, metric, delta*100, threshold*100))
			}
		}
	}
	return failures
}

func parseBenchmarkFile(path string) (sampleSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return parseBenchmarks(file)
}

func parseBenchmarks(r io.Reader) (sampleSet, error) {
	samples := sampleSet{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "Benchmark") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		name := normalizeBenchmarkName(fields[0])
		if _, ok := trackedMetrics[name]; !ok {
			continue
		}

		if _, ok := samples[name]; !ok {
			samples[name] = map[string][]float64{}
		}

		for i := 2; i+1 < len(fields); i += 2 {
			value, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				continue
			}
			unit := fields[i+1]
			samples[name][unit] = append(samples[name][unit], value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

func normalizeBenchmarkName(raw string) string {
	if idx := strings.LastIndexByte(raw, '-'); idx > 0 {
		if _, err := strconv.Atoi(raw[idx+1:]); err == nil {
			return raw[:idx]
		}
	}
	return raw
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	copied := make([]float64, len(values))
	copy(copied, values)
	sort.Float64s(copied)

	mid := len(copied) / 2
	if len(copied)%2 == 1 {
		return copied[mid]
	}
	return (copied[mid-1] + copied[mid]) / 2
}
