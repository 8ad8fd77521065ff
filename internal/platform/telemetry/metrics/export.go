package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// expositionContentType matches the Prometheus text format version the
// exposition follows.
const expositionContentType = "text/plain; version=0.0.4; charset=utf-8"

func sortSnapshots(views []Snapshot) {
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
}

// ExportAll renders every metric in the Prometheus text format, sorted by
// metric name and then by label tuple.
func (r *Registry) ExportAll() string {
	var b strings.Builder
	for _, view := range r.snapshots() {
		writeSnapshot(&b, view)
	}
	return b.String()
}

// Handler serves the exposition for external scrapers.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", expositionContentType)
		fmt.Fprint(w, r.ExportAll())
	})
}

func writeSnapshot(b *strings.Builder, view Snapshot) {
	fmt.Fprintf(b, "# TYPE %s %s\n", view.Name, view.Kind)
	for _, s := range view.Series {
		switch view.Kind {
		case KindHistogram:
			for _, bucket := range s.Buckets {
				writeLine(b, view.Name+"_bucket", view.LabelNames, s.LabelValues, "le", formatBound(bucket.UpperBound), float64(bucket.CumulativeCount))
			}
			writeLine(b, view.Name+"_sum", view.LabelNames, s.LabelValues, "", "", s.Sum)
			writeLine(b, view.Name+"_count", view.LabelNames, s.LabelValues, "", "", float64(s.Count))
		default:
			writeLine(b, view.Name, view.LabelNames, s.LabelValues, "", "", s.Value)
		}
	}
}

// writeLine renders one exposition line, appending an optional extra label
// (the histogram "le" boundary) after the declared labels.
func writeLine(b *strings.Builder, name string, labelNames, labelValues []string, extraName, extraValue string, value float64) {
	b.WriteString(name)
	if len(labelNames) > 0 || extraName != "" {
		b.WriteByte('{')
		for i, label := range labelNames {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(label)
			b.WriteString(`="`)
			b.WriteString(escapeLabel(labelValues[i]))
			b.WriteByte('"')
		}
		if extraName != "" {
			if len(labelNames) > 0 {
				b.WriteByte(',')
			}
			b.WriteString(extraName)
			b.WriteString(`="`)
			b.WriteString(extraValue)
			b.WriteByte('"')
		}
		b.WriteByte('}')
	}
	b.WriteByte(' ')
	b.WriteString(formatValue(value))
	b.WriteByte('\n')
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatBound(v float64) string {
	if math.IsInf(v, 1) {
		return "+Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// escapeLabel neutralizes characters that would break the text format.
func escapeLabel(v string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "\n", `\n`, `"`, `\"`)
	return replacer.Replace(v)
}
