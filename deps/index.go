/*
index.go - Reverse dependency index

PURPOSE:
  Answers "who depends on concept X" without rescanning the corpus per
  request. A rebuild walks every concept, parses its formula and its
  condition, and records two maps:
    direct["0100"]       -> codes whose text references 0100 directly
    ranges["0050-0100"]  -> codes whose text references that range
  Range membership is resolved at query time by numeric containment, so
  a range entry costs one key no matter how many concepts it spans.

CONCURRENCY:
  Queries read an immutable snapshot grabbed once under RWMutex;
  rebuilds prepare a fresh snapshot aside and swap the pointer. A failed
  rebuild keeps the previous snapshot untouched. Concurrent rebuilds are
  serialized by a dedicated build mutex.

REBUILD SOURCES:
  The startup warm-up, the periodic scheduler and the explicit refresh
  endpoint all funnel into Build.

SEE ALSO:
  - formula/parser.go: forward reference extraction
  - api/scheduler.go: periodic rebuilds
*/
package deps

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/upcn/formu/concepts"
	"github.com/upcn/formu/formula"
)

// sampleKeyLimit caps the sample keys the debug endpoint shows.
const sampleKeyLimit = 10

// snapshot is one immutable build result.
type snapshot struct {
	direct map[string]map[string]struct{}
	ranges map[string]map[string]struct{} // keyed "lo-hi"
	ready  bool
}

func newSnapshot() *snapshot {
	return &snapshot{
		direct: make(map[string]map[string]struct{}),
		ranges: make(map[string]map[string]struct{}),
	}
}

// Stats summarizes a snapshot for the cache endpoints.
type Stats struct {
	Ready             bool   `json:"ready"`
	Entries           int    `json:"entries"`
	ExpirationMinutes int    `json:"expirationMinutes"`
	TopConcept        string `json:"conceptoMasDependientes"`
	MaxDependents     int    `json:"maxDependientes,omitempty"`
}

// DebugInfo explains how the index currently sees one code.
type DebugInfo struct {
	Code             string   `json:"codigoBuscado"`
	Ready            bool     `json:"cacheReady"`
	TotalEntries     int      `json:"totalEntries"`
	DirectCount      int      `json:"dependientesDirectos"`
	Dependents       []string `json:"dependientesList"`
	ContainingRanges []string `json:"rangosQueLoIncluyen"`
	SampleKeys       []string `json:"sampleConceptKeys"`
}

// Index is the reverse-dependency index over a concept corpus.
type Index struct {
	corpus     concepts.Corpus
	parser     *formula.Parser
	expiration time.Duration
	log        zerolog.Logger

	mu   sync.RWMutex // guards snap
	snap *snapshot

	buildMu sync.Mutex // serializes rebuilds
}

// New returns an index with no snapshot yet: queries answer empty until
// the first Build completes. The expiration is only reported by Stats;
// driving the rebuild cadence is the scheduler's job.
func New(corpus concepts.Corpus, parser *formula.Parser, expiration time.Duration, log zerolog.Logger) *Index {
	return &Index{
		corpus:     corpus,
		parser:     parser,
		expiration: expiration,
		log:        log,
		snap:       newSnapshot(),
	}
}

// Build rebuilds the whole index from the corpus and swaps it in
// atomically. On error the previous snapshot stays in place. An empty
// corpus is authoritative: it installs an empty ready snapshot.
func (x *Index) Build(ctx context.Context) error {
	x.buildMu.Lock()
	defer x.buildMu.Unlock()

	start := time.Now()
	rows, err := x.corpus.All(ctx)
	if err != nil {
		return fmt.Errorf("loading concepts: %w", err)
	}

	next := newSnapshot()
	for _, c := range rows {
		for _, text := range [2]string{c.Formula, c.Condition} {
			if strings.TrimSpace(text) == "" {
				continue
			}
			for ref := range x.parser.ForwardRefs(text) {
				addDependent(next.direct, ref, c.Code)
			}
			for _, r := range x.parser.Ranges(text) {
				addDependent(next.ranges, r[0]+"-"+r[1], c.Code)
			}
		}
	}
	next.ready = true

	x.mu.Lock()
	x.snap = next
	x.mu.Unlock()

	x.log.Info().
		Int("concepts", len(rows)).
		Int("directKeys", len(next.direct)).
		Int("rangeKeys", len(next.ranges)).
		Dur("took", time.Since(start)).
		Msg("dependency index rebuilt")
	return nil
}

func addDependent(m map[string]map[string]struct{}, key, code string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{})
		m[key] = set
	}
	set[code] = struct{}{}
}

func (x *Index) current() *snapshot {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.snap
}

// Ready reports whether a build has completed since startup.
func (x *Index) Ready() bool {
	return x.current().ready
}

// Dependents returns every code whose formula or condition references the
// given code, directly or through a containing range. Sorted; empty until
// the first build completes.
func (x *Index) Dependents(code string) []string {
	return x.current().dependents(code)
}

// DependentsOfRange returns the codes referencing exactly the lo-hi
// range. Sorted; empty when the key is absent or the index not ready.
func (x *Index) DependentsOfRange(lo, hi string) []string {
	s := x.current()
	if !s.ready {
		return []string{}
	}
	return sortedKeys(s.ranges[lo+"-"+hi])
}

// Stats summarizes the current snapshot. The top concept is the direct
// key with the largest fan-in; ties go to the smallest code.
func (x *Index) Stats() Stats {
	s := x.current()

	st := Stats{
		Ready:             s.ready,
		Entries:           len(s.direct) + len(s.ranges),
		ExpirationMinutes: int(x.expiration / time.Minute),
		TopConcept:        "N/A",
	}
	for key, deps := range s.direct {
		switch {
		case len(deps) > st.MaxDependents:
			st.TopConcept = key
			st.MaxDependents = len(deps)
		case len(deps) == st.MaxDependents && st.MaxDependents > 0 && key < st.TopConcept:
			st.TopConcept = key
		}
	}
	return st
}

// Debug explains how the index sees one code: its direct fan-in, the
// full dependent set, the range keys containing it and a sample of the
// direct keys.
func (x *Index) Debug(code string) DebugInfo {
	s := x.current()

	info := DebugInfo{
		Code:             code,
		Ready:            s.ready,
		TotalEntries:     len(s.direct) + len(s.ranges),
		DirectCount:      len(s.direct[code]),
		Dependents:       s.dependents(code),
		ContainingRanges: []string{},
	}

	if n, err := strconv.Atoi(code); err == nil {
		for key := range s.ranges {
			if lo, hi, ok := rangeBounds(key); ok && lo <= n && n <= hi {
				info.ContainingRanges = append(info.ContainingRanges, key)
			}
		}
		sort.Strings(info.ContainingRanges)
	}

	sample := make([]string, 0, len(s.direct))
	for key := range s.direct {
		sample = append(sample, key)
	}
	sort.Strings(sample)
	if len(sample) > sampleKeyLimit {
		sample = sample[:sampleKeyLimit]
	}
	info.SampleKeys = sample

	return info
}

// dependents unions the direct set with every range whose interval
// contains the code. Non-numeric codes only have direct dependents.
func (s *snapshot) dependents(code string) []string {
	if !s.ready {
		return []string{}
	}

	found := make(map[string]struct{}, len(s.direct[code]))
	for dep := range s.direct[code] {
		found[dep] = struct{}{}
	}

	if n, err := strconv.Atoi(code); err == nil {
		for key, deps := range s.ranges {
			if lo, hi, ok := rangeBounds(key); ok && lo <= n && n <= hi {
				for dep := range deps {
					found[dep] = struct{}{}
				}
			}
		}
	}

	return sortedKeys(found)
}

// rangeBounds parses a "lo-hi" key into its numeric interval.
func rangeBounds(key string) (lo, hi int, ok bool) {
	loStr, hiStr, found := strings.Cut(key, "-")
	if !found {
		return 0, 0, false
	}
	lo, err := strconv.Atoi(loStr)
	if err != nil {
		return 0, 0, false
	}
	hi, err = strconv.Atoi(hiStr)
	if err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
