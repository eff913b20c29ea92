// Package sacct parses scheduler text output: the one-line submission
// confirmation and the pipe-delimited status tables.
package sacct

import (
	"strconv"
	"strings"

	"github.com/me/slurmgate/pkg/model"
)

// stepMarkers flag internal sub-records of a job (batch step, extern
// step). Rows carrying one are filtering noise, never job states.
var stepMarkers = []string{".batch", ".extern"}

// ParseSubmission extracts the job identifier from submission output.
// The scheduler prints the fixed template "Submitted batch job <id>",
// so the identifier is the 4th whitespace-separated token of the first
// line. Anything else is a ParseError, distinct from a process failure.
func ParseSubmission(output string) (int, error) {
	line, _, _ := strings.Cut(output, "\n")
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return 0, &model.ParseError{Output: output, Message: "submission output has fewer than 4 tokens"}
	}
	id, err := strconv.Atoi(fields[3])
	if err != nil {
		return 0, &model.ParseError{Output: output, Message: "submission token 4 is not an integer"}
	}
	return id, nil
}

// ParseTable parses pipe-delimited status output: a header line
// followed by zero or more data lines with identifier, state, and
// exit-code columns. Step rows are discarded. No data lines is not an
// error; a freshly submitted job may not be visible yet.
func ParseTable(output string) ([]model.Record, error) {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) < 2 {
		return nil, nil
	}

	var records []model.Record
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		cols := strings.Split(line, "|")
		if len(cols) != 3 {
			return nil, &model.ParseError{Output: line, Message: "row does not have 3 pipe-delimited columns"}
		}
		if isStepRow(cols[0]) {
			continue
		}
		id, err := strconv.Atoi(cols[0])
		if err != nil {
			return nil, &model.ParseError{Output: line, Message: "row identifier is not an integer"}
		}
		records = append(records, model.Record{
			JobID:    id,
			State:    cols[1],
			ExitCode: cols[2],
		})
	}
	return records, nil
}

// Reduce deduplicates records by job identifier. When the scheduler
// emits several surviving rows for one identifier in a single poll, the
// last row in scan order wins; the returned slice keeps identifiers in
// the order they were first seen.
func Reduce(records []model.Record) []model.Record {
	latest := make(map[int]model.Record, len(records))
	var order []int
	for _, rec := range records {
		if _, seen := latest[rec.JobID]; !seen {
			order = append(order, rec.JobID)
		}
		latest[rec.JobID] = rec
	}

	reduced := make([]model.Record, 0, len(order))
	for _, id := range order {
		reduced = append(reduced, latest[id])
	}
	return reduced
}

// isStepRow reports whether the identifier carries a step-suffix marker.
func isStepRow(identifier string) bool {
	for _, marker := range stepMarkers {
		if strings.Contains(identifier, marker) {
			return true
		}
	}
	return false
}
