package dataset

import (
	"slices"
	"strings"

	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
)

// Benchmark is one of the supported zero-shot benchmarks.
type Benchmark string

const (
	CUB  Benchmark = "cub"
	SUN  Benchmark = "sun"
	AWA1 Benchmark = "awa1"
	AWA2 Benchmark = "awa2"
)

// AuxAttributes selects the class attribute matrix of the split file.
const AuxAttributes = "attributes"

var benchmarkDirs = map[Benchmark]string{
	CUB:  "CUB",
	SUN:  "SUN",
	AWA1: "AWA1",
	AWA2: "AWA2",
}

// Benchmarks lists the accepted benchmark names in sorted order.
func Benchmarks() []string {
	names := make([]string, 0, len(benchmarkDirs))
	for b := range benchmarkDirs {
		names = append(names, string(b))
	}
	slices.Sort(names)
	return names
}

// ParseBenchmark resolves a benchmark name. Matching is case-insensitive.
func ParseBenchmark(name string) (Benchmark, error) {
	b := Benchmark(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := benchmarkDirs[b]; !ok {
		return "", errors.NewConfigurationError("dataset", name, Benchmarks())
	}
	return b, nil
}

// Dir is the benchmark subdirectory under the data root.
func (b Benchmark) Dir() string {
	return benchmarkDirs[b]
}

// HasSideFile reports whether the benchmark ships extra auxiliary modalities.
func (b Benchmark) HasSideFile() bool {
	return b == CUB
}
