package logs

import (
	"strconv"
	"strings"
)

// Filter selects log lines. Zero fields match everything.
type Filter struct {
	JobID     int64
	RequestID string
	Level     string
}

// Empty reports whether the filter accepts every line.
func (f Filter) Empty() bool {
	return f.JobID == 0 && strings.TrimSpace(f.RequestID) == "" && strings.TrimSpace(f.Level) == ""
}

// Match reports whether line passes f. Both the console layout
// ("[job 12 | stage]", "job_id=12") and JSON ("job_id":12) are recognised.
func (f Filter) Match(line string) bool {
	if f.JobID != 0 {
		id := strconv.FormatInt(f.JobID, 10)
		if !strings.Contains(line, `"job_id":`+id) &&
			!strings.Contains(line, "job_id="+id) &&
			!strings.Contains(line, "[job "+id+" ") &&
			!strings.Contains(line, "[job "+id+"]") {
			return false
		}
	}
	if rid := strings.TrimSpace(f.RequestID); rid != "" && !strings.Contains(line, rid) {
		return false
	}
	if level := strings.TrimSpace(f.Level); level != "" {
		lower := strings.ToLower(level)
		upper := strings.ToUpper(level)
		if !strings.Contains(line, `"level":"`+lower+`"`) &&
			!strings.Contains(line, " "+upper+" ") &&
			!strings.HasPrefix(line, upper+" ") {
			return false
		}
	}
	return true
}

// Apply returns the lines that pass f.
func (f Filter) Apply(lines []string) []string {
	if f.Empty() {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if f.Match(line) {
			out = append(out, line)
		}
	}
	return out
}
