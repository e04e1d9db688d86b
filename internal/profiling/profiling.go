package profiling

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Accumulates wall time per named stage across loading and meshing runs.

// Stat is the accumulated time and call count for one name.
type Stat struct {
	Name  string
	Total time.Duration
	Calls int
}

var (
	mu     sync.Mutex
	totals = make(map[string]*Stat)
)

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer profiling.Track("meshing.GenerateMeshData")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		s := totals[name]
		if s == nil {
			s = &Stat{Name: name}
			totals[name] = s
		}
		s.Total += d
		s.Calls++
		mu.Unlock()
	}
}

// Reset clears all totals.
func Reset() {
	mu.Lock()
	clear(totals)
	mu.Unlock()
}

// Snapshot returns the current totals sorted by descending time.
func Snapshot() []Stat {
	mu.Lock()
	out := make([]Stat, 0, len(totals))
	for _, s := range totals {
		out = append(out, *s)
	}
	mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopN formats the N most expensive stages.
// Example: "blockstate.LoadBlockState:4.2ms, meshing.GenerateMeshData:2.1ms"
func TopN(n int) string {
	ss := Snapshot()
	n = min(n, len(ss))
	parts := make([]string, 0, n)
	for _, s := range ss[:n] {
		parts = append(parts, s.Name+":"+formatMs(s.Total))
	}
	return strings.Join(parts, ", ")
}

// Report logs every stage at debug level.
func Report(log *zap.Logger) {
	for _, s := range Snapshot() {
		log.Debug("profile",
			zap.String("stage", s.Name),
			zap.Duration("total", s.Total),
			zap.Int("calls", s.Calls))
	}
}

func formatMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000.0
	return strconv.FormatFloat(ms, 'f', 1, 64) + "ms"
}
