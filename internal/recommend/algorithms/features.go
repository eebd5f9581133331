// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package algorithms

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gamestore/recsys/internal/recommend"
)

// EncoderConfig contains parameters for the feature encoder.
type EncoderConfig struct {
	// GenreRepeat is how many times genre tags are repeated in the text
	// bag to weight them above other fields. Default: 3.
	GenreRepeat int

	// DescriptionPrefixLen bounds how much of the description enters the
	// text bag, in runes. Default: 300.
	DescriptionPrefixLen int

	// DefaultBenchmark is the score used when a CPU/GPU key has no match
	// in the benchmark table. Default: 1000.
	DefaultBenchmark float64

	// DefaultRAMGB is used when the RAM string cannot be parsed. Default: 4.
	DefaultRAMGB float64

	// MinYear and MaxYear define the fixed historical range release years
	// are normalized into. Defaults: 1990 and 2030.
	MinYear int
	MaxYear int
}

// DefaultEncoderConfig returns the default encoder parameters.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		GenreRepeat:          3,
		DescriptionPrefixLen: 300,
		DefaultBenchmark:     1000,
		DefaultRAMGB:         4,
		MinYear:              1990,
		MaxYear:              2030,
	}
}

// NumericFeatureCount is the width of the numeric feature vector:
// log price, CPU benchmark, GPU benchmark, RAM GB, normalized release year.
const NumericFeatureCount = 5

// Encoder turns a catalog item into a weighted bag-of-terms text
// representation and a numeric feature vector. Malformed spec strings
// fall back to neutral defaults; encoding never fails for a single bad
// catalog entry.
type Encoder struct {
	cfg EncoderConfig

	// cpuIndex and gpuIndex map normalized benchmark keys to scores.
	// Built once at construction so lookup is a map hit plus a bounded
	// substring scan, not a repeated fuzzy search.
	cpuIndex map[string]float64
	gpuIndex map[string]float64
}

// NewEncoder creates an encoder over the given benchmark tables. Nil
// tables select the built-in defaults.
func NewEncoder(cfg EncoderConfig, cpuTable, gpuTable map[string]float64) *Encoder {
	if cfg.GenreRepeat <= 0 {
		cfg.GenreRepeat = 3
	}
	if cfg.DescriptionPrefixLen <= 0 {
		cfg.DescriptionPrefixLen = 300
	}
	if cfg.DefaultBenchmark <= 0 {
		cfg.DefaultBenchmark = 1000
	}
	if cfg.DefaultRAMGB <= 0 {
		cfg.DefaultRAMGB = 4
	}
	if cfg.MinYear <= 0 {
		cfg.MinYear = 1990
	}
	if cfg.MaxYear <= cfg.MinYear {
		cfg.MaxYear = 2030
	}

	if cpuTable == nil {
		cpuTable = defaultCPUBenchmarks
	}
	if gpuTable == nil {
		gpuTable = defaultGPUBenchmarks
	}

	return &Encoder{
		cfg:      cfg,
		cpuIndex: buildBenchmarkIndex(cpuTable),
		gpuIndex: buildBenchmarkIndex(gpuTable),
	}
}

// buildBenchmarkIndex normalizes table keys (strip whitespace, lowercase)
// into a lookup index.
func buildBenchmarkIndex(table map[string]float64) map[string]float64 {
	idx := make(map[string]float64, len(table))
	for k, v := range table {
		idx[normalizeBenchmarkKey(k)] = v
	}
	return idx
}

// normalizeBenchmarkKey strips whitespace and case from a hardware key.
func normalizeBenchmarkKey(k string) string {
	return strings.ToLower(strings.Join(strings.Fields(k), ""))
}

// TextBag returns the weighted token bag for an item: genres repeated
// GenreRepeat times, then publisher, age rating, platforms, mode, a
// multiplayer marker token, and a bounded prefix of the description.
func (e *Encoder) TextBag(item *recommend.Item) []string {
	bag := make([]string, 0, 32)

	for r := 0; r < e.cfg.GenreRepeat; r++ {
		for _, g := range item.Genres {
			bag = append(bag, tokenize(g)...)
		}
	}
	bag = append(bag, tokenize(item.Publisher)...)
	bag = append(bag, tokenize(item.AgeRating)...)
	for _, p := range item.Platforms {
		bag = append(bag, tokenize(p)...)
	}
	bag = append(bag, tokenize(item.Mode)...)
	if item.Multiplayer {
		bag = append(bag, "multiplayer")
	}

	desc := []rune(item.Description)
	if len(desc) > e.cfg.DescriptionPrefixLen {
		desc = desc[:e.cfg.DescriptionPrefixLen]
	}
	bag = append(bag, tokenize(string(desc))...)

	return bag
}

// NumericVector returns the raw numeric features for an item. The caller
// standardizes columns across the catalog before use.
func (e *Encoder) NumericVector(item *recommend.Item) []float64 {
	v := make([]float64, NumericFeatureCount)
	v[0] = math.Log1p(math.Max(item.Price, 0))
	v[1] = e.lookupBenchmark(e.cpuIndex, item.MinCPU)
	v[2] = e.lookupBenchmark(e.gpuIndex, item.MinGPU)
	v[3] = e.parseRAMGB(item.MinRAM)
	v[4] = e.normalizeYear(item.ReleaseYear())
	return v
}

// lookupBenchmark resolves a hardware key against the index: exact
// normalized match first, then substring containment in either direction,
// then the default score.
func (e *Encoder) lookupBenchmark(idx map[string]float64, key string) float64 {
	norm := normalizeBenchmarkKey(key)
	if norm == "" {
		return e.cfg.DefaultBenchmark
	}
	if score, ok := idx[norm]; ok {
		return score
	}
	for k, score := range idx {
		if strings.Contains(norm, k) || strings.Contains(k, norm) {
			return score
		}
	}
	return e.cfg.DefaultBenchmark
}

// parseRAMGB parses spec strings like "8GB", "512 MB", or "16gb ram"
// into gigabytes. Unparsable strings return the configured default.
func (e *Encoder) parseRAMGB(s string) float64 {
	norm := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if norm == "" {
		return e.cfg.DefaultRAMGB
	}

	end := 0
	for end < len(norm) && (norm[end] >= '0' && norm[end] <= '9' || norm[end] == '.') {
		end++
	}
	if end == 0 {
		return e.cfg.DefaultRAMGB
	}

	n, err := strconv.ParseFloat(norm[:end], 64)
	if err != nil || n <= 0 {
		return e.cfg.DefaultRAMGB
	}

	switch {
	case strings.HasPrefix(norm[end:], "MB"):
		return n / 1024
	case strings.HasPrefix(norm[end:], "GB"):
		return n
	default:
		// Bare number: assume gigabytes.
		return n
	}
}

// normalizeYear maps a release year into [0,1] over the fixed range.
// A zero year maps to the range midpoint.
func (e *Encoder) normalizeYear(year int) float64 {
	if year == 0 {
		return 0.5
	}
	span := float64(e.cfg.MaxYear - e.cfg.MinYear)
	v := (float64(year) - float64(e.cfg.MinYear)) / span
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Standardize z-scores each column of the numeric matrix in place across
// the catalog. Columns with zero variance are zeroed.
func Standardize(vectors [][]float64) {
	if len(vectors) == 0 {
		return
	}
	cols := len(vectors[0])

	for c := 0; c < cols; c++ {
		var sum, sqSum float64
		for _, v := range vectors {
			sum += v[c]
			sqSum += v[c] * v[c]
		}
		n := float64(len(vectors))
		mean := sum / n
		variance := sqSum/n - mean*mean
		if variance <= 0 {
			for _, v := range vectors {
				v[c] = 0
			}
			continue
		}
		std := math.Sqrt(variance)
		for _, v := range vectors {
			v[c] = (v[c] - mean) / std
		}
	}
}

// tokenize lowercases and splits a field into alphanumeric tokens.
func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !isTokenRune(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// isTokenRune reports whether r belongs inside a token. Letters beyond
// ASCII (e.g. Vietnamese) are kept so the text bag preserves them.
func isTokenRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r >= 128:
		return true
	default:
		return false
	}
}

// defaultCPUBenchmarks maps common minimum-spec CPU names to synthetic
// benchmark scores. Unknown parts fall back to EncoderConfig.DefaultBenchmark.
var defaultCPUBenchmarks = map[string]float64{
	"Intel Core i3":       4200,
	"Intel Core i5":       7600,
	"Intel Core i7":       11500,
	"Intel Core i9":       16800,
	"Intel Celeron":       1800,
	"Intel Pentium":       2600,
	"AMD Ryzen 3":         5200,
	"AMD Ryzen 5":         9400,
	"AMD Ryzen 7":         13600,
	"AMD Ryzen 9":         18200,
	"AMD Athlon":          2400,
	"AMD FX-6300":         4100,
	"Apple M1":            12400,
	"Apple M2":            14800,
	"Snapdragon 8 Gen 2":  6200,
}

// defaultGPUBenchmarks maps common minimum-spec GPU names to synthetic
// benchmark scores.
var defaultGPUBenchmarks = map[string]float64{
	"Intel HD Graphics":   800,
	"Intel Iris Xe":       2600,
	"NVIDIA GTX 750":      3300,
	"NVIDIA GTX 1050":     5100,
	"NVIDIA GTX 1060":     8900,
	"NVIDIA GTX 1650":     7800,
	"NVIDIA RTX 2060":     14200,
	"NVIDIA RTX 3060":     17000,
	"NVIDIA RTX 4060":     19500,
	"NVIDIA RTX 4090":     38900,
	"AMD Radeon RX 560":   4400,
	"AMD Radeon RX 580":   8500,
	"AMD Radeon RX 6600":  16300,
	"AMD Radeon Vega 8":   1900,
	"Apple M1 GPU":        10200,
}

// EncodeCatalog encodes every item and standardizes the numeric columns.
// Returns parallel slices aligned with items.
func EncodeCatalog(enc *Encoder, items []recommend.Item) (bags [][]string, numeric [][]float64) {
	bags = make([][]string, len(items))
	numeric = make([][]float64, len(items))
	for i := range items {
		bags[i] = enc.TextBag(&items[i])
		numeric[i] = enc.NumericVector(&items[i])
	}
	Standardize(numeric)
	return bags, numeric
}

// String implements fmt.Stringer for debugging.
func (e *Encoder) String() string {
	return fmt.Sprintf("encoder(cpu=%d gpu=%d)", len(e.cpuIndex), len(e.gpuIndex))
}
