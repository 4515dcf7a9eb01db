// Package auditlog renders order change history in the dashboard's legacy
// line format and parses it back. Storage is structured (models.OrderLog
// rows); the single-line encoding only exists at the edge, for display and
// for importing history exported by the old dashboard.
package auditlog

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TimeLayout is the timestamp prefix used on every encoded line.
const TimeLayout = "2006-01-02 15:04:05"

// Fields is the fixed set of field names a line may carry. The decoder
// splits only in front of these, so values may contain commas as long as
// they do not contain a literal ", Status: " style delimiter.
var Fields = []string{"Status", "Paid", "Shipping", "Ref"}

// Change is one field mutation inside an entry.
type Change struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// Entry is one encoded line: a timestamp plus every field that changed in
// that save.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Changes   []Change  `json:"changes"`
}

// splitter finds the boundary before each known field segment. RE2 has no
// lookahead, so we locate the delimiters and cut manually.
var splitter = regexp.MustCompile(`, (Status|Paid|Shipping|Ref): `)

// Encode renders an entry as `[ts] Field: old -> new, Field2: old2 -> new2`.
func Encode(ts time.Time, changes []Change) string {
	segs := make([]string, 0, len(changes))
	for _, ch := range changes {
		segs = append(segs, fmt.Sprintf("%s: %s -> %s", ch.Field, ch.Old, ch.New))
	}
	return fmt.Sprintf("[%s] %s", ts.Format(TimeLayout), strings.Join(segs, ", "))
}

// Decode parses a line produced by Encode back into an Entry.
func Decode(line string) (Entry, error) {
	var e Entry

	if !strings.HasPrefix(line, "[") {
		return e, fmt.Errorf("auditlog: missing timestamp prefix in %q", line)
	}
	end := strings.Index(line, "] ")
	if end < 0 {
		return e, fmt.Errorf("auditlog: malformed timestamp in %q", line)
	}
	ts, err := time.Parse(TimeLayout, line[1:end])
	if err != nil {
		return e, fmt.Errorf("auditlog: parse timestamp: %w", err)
	}
	e.Timestamp = ts

	body := line[end+2:]
	for _, seg := range splitSegments(body) {
		ch, err := parseSegment(seg)
		if err != nil {
			return Entry{}, err
		}
		e.Changes = append(e.Changes, ch)
	}
	return e, nil
}

// splitSegments cuts the body in front of each `, Field: ` delimiter.
func splitSegments(body string) []string {
	if body == "" {
		return nil
	}
	marks := splitter.FindAllStringIndex(body, -1)
	if len(marks) == 0 {
		return []string{body}
	}
	segs := make([]string, 0, len(marks)+1)
	start := 0
	for _, m := range marks {
		segs = append(segs, body[start:m[0]])
		start = m[0] + 2 // skip the ", "
	}
	segs = append(segs, body[start:])
	return segs
}

func parseSegment(seg string) (Change, error) {
	for _, f := range Fields {
		prefix := f + ": "
		if !strings.HasPrefix(seg, prefix) {
			continue
		}
		rest := seg[len(prefix):]
		arrow := strings.LastIndex(rest, " -> ")
		if arrow < 0 {
			return Change{}, fmt.Errorf("auditlog: missing arrow in segment %q", seg)
		}
		return Change{Field: f, Old: rest[:arrow], New: rest[arrow+4:]}, nil
	}
	return Change{}, fmt.Errorf("auditlog: unknown field in segment %q", seg)
}

// Diff builds the change set between two orders' loggable fields. Field
// names and value rendering match the legacy dashboard exactly.
func Diff(oldPayment, newPayment string, oldPaid, newPaid float64, oldShipping, newShipping, oldRef, newRef string) []Change {
	var changes []Change
	if oldPayment != newPayment {
		changes = append(changes, Change{Field: "Status", Old: oldPayment, New: newPayment})
	}
	if oldPaid != newPaid {
		changes = append(changes, Change{Field: "Paid", Old: formatAmount(oldPaid), New: formatAmount(newPaid)})
	}
	if oldShipping != newShipping {
		changes = append(changes, Change{Field: "Shipping", Old: oldShipping, New: newShipping})
	}
	if oldRef != newRef {
		changes = append(changes, Change{Field: "Ref", Old: orDash(oldRef), New: orDash(newRef)})
	}
	return changes
}

func formatAmount(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
