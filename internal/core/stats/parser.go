// Package stats extracts the handful of counters the panel shows from
// `unbound-control stats_noreset` output.
package stats

import (
	"math"
	"regexp"
	"strconv"

	"github.com/melih/unbound-panel/internal/core/domain"
)

var (
	queriesRe   = regexp.MustCompile(`(?m)^total\.num\.queries=(\d+)`)
	cacheHitsRe = regexp.MustCompile(`(?m)^total\.num\.cachehits=(\d+)`)
	avgTimeRe   = regexp.MustCompile(`(?m)^total\.recursion\.time\.avg=([\d.]+)`)
	uptimeRe    = regexp.MustCompile(`(?m)^time\.up=([\d.]+)`)
)

// Parse reads the counters out of raw stats output. Absent or malformed
// fields are left at zero. Average recursion time is converted from
// seconds to milliseconds and rounded to one decimal.
func Parse(output string) domain.Stats {
	var s domain.Stats

	if v, ok := match(queriesRe, output); ok {
		s.TotalQueries, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := match(cacheHitsRe, output); ok {
		s.CacheHits, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := match(avgTimeRe, output); ok {
		if sec, err := strconv.ParseFloat(v, 64); err == nil {
			s.AvgLatency = math.Round(sec*1000*10) / 10
		}
	}
	if v, ok := match(uptimeRe, output); ok {
		s.Uptime, _ = strconv.ParseFloat(v, 64)
	}

	return s
}

func match(re *regexp.Regexp, output string) (string, bool) {
	m := re.FindStringSubmatch(output)
	if m == nil {
		return "", false
	}
	return m[1], true
}
