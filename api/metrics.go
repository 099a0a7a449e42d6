package api

import (
	"encoding/json"
	"net/http"
	"regexp"
	"sync"
	"time"
)

// RouteStat aggregates request counts and timings for one method+path pair.
// Paths are normalized so every recipe or family ID lands on the same row.
type RouteStat struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

type statsCollector struct {
	mu            sync.Mutex
	routes        map[string]*RouteStat
	totalRequests int64
	totalErrors   int64
	started       time.Time
}

var stats = &statsCollector{
	routes:  make(map[string]*RouteStat),
	started: time.Now(),
}

var objectIDSegment = regexp.MustCompile(`/[0-9a-fA-F]{24}(/|$)`)

// normalizeRoutePath collapses ObjectID path segments into {id} so per-entity
// URLs aggregate onto one route row
func normalizeRoutePath(path string) string {
	for objectIDSegment.MatchString(path) {
		path = objectIDSegment.ReplaceAllString(path, "/{id}$1")
	}
	return path
}

func (sc *statsCollector) record(method, path string, status int, elapsed time.Duration) {
	key := method + " " + normalizeRoutePath(path)

	sc.mu.Lock()
	defer sc.mu.Unlock()

	stat, ok := sc.routes[key]
	if !ok {
		stat = &RouteStat{Method: method, Path: normalizeRoutePath(path), MinTime: elapsed}
		sc.routes[key] = stat
	}
	stat.Count++
	stat.TotalTime += elapsed
	stat.AvgTime = stat.TotalTime / time.Duration(stat.Count)
	stat.LastRequest = time.Now()
	if elapsed < stat.MinTime {
		stat.MinTime = elapsed
	}
	if elapsed > stat.MaxTime {
		stat.MaxTime = elapsed
	}
	if status >= 400 {
		stat.ErrorCount++
		sc.totalErrors++
	}
	sc.totalRequests++
}

func (sc *statsCollector) snapshot() ([]RouteStat, map[string]interface{}) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	routes := make([]RouteStat, 0, len(sc.routes))
	for _, stat := range sc.routes {
		routes = append(routes, *stat)
	}
	summary := map[string]interface{}{
		"totalRequests": sc.totalRequests,
		"totalErrors":   sc.totalErrors,
		"routeCount":    len(sc.routes),
		"since":         sc.started,
	}
	return routes, summary
}

// MetricsHandler reports the aggregated per-route request stats
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	routes, summary := stats.snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"summary": summary,
		"routes":  routes,
	})
}
