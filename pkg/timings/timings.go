// Package timings records how long each phase of an evaluation takes and
// renders the result as a table.
package timings

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

type point struct {
	label string
	ms    float64
}

// Laps is a sequence of labelled intervals. Each Lap measures the time
// since the previous one (or since Start).
type Laps struct {
	points []point
	last   time.Time
	now    func() time.Time
}

// Start begins measuring.
func Start() *Laps {
	return startWith(time.Now)
}

func startWith(now func() time.Time) *Laps {
	return &Laps{last: now(), now: now}
}

// Lap closes the current interval under label.
func (l *Laps) Lap(label string) {
	t := l.now()
	l.points = append(l.points, point{label: label, ms: float64(t.Sub(l.last)) / float64(time.Millisecond)})
	l.last = t
}

// Append adds other's intervals as prefix/label. An empty other becomes a
// single interval named prefix.
func (l *Laps) Append(other *Laps, prefix string) {
	if other == nil || len(other.points) == 0 {
		l.Lap(prefix)
		return
	}
	for _, p := range other.points {
		l.points = append(l.points, point{label: prefix + "/" + p.label, ms: p.ms})
	}
	l.last = l.now()
}

// Labels returns the interval labels in order.
func (l *Laps) Labels() []string {
	labels := make([]string, len(l.points))
	for i, p := range l.points {
		labels[i] = p.label
	}
	return labels
}

// Total returns the summed time in milliseconds.
func (l *Laps) Total() float64 {
	total := 0.0
	for _, p := range l.points {
		total += p.ms
	}
	return total
}

// Report renders the intervals with their share of the total.
func (l *Laps) Report() string {
	total := l.Total()

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Category\tTime (MS)\t%")
	for _, p := range l.points {
		share := 0.0
		if total > 0 {
			share = p.ms * 100 / total
		}
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", p.label, p.ms, share)
	}
	fmt.Fprintf(w, "Total\t%.4f\t100%%\n", total)
	w.Flush()
	return sb.String()
}
