package search

import (
	"fmt"
	"os"
	"strings"
)

// ResultLog appends one CSV record per pipeline evaluation so a search
// can be inspected, or resumed by eye, while it is still running.
type ResultLog struct {
	f    *os.File
	prec int
}

// CreateResultLog truncates path and writes the header row: an iteration
// column, one column per control variable, and the objective column.
func CreateResultLog(path string, columns []string, prec int) (*ResultLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating result log: %w", err)
	}
	header := fmt.Sprintf("# Iteration, %s, Objective\n", strings.Join(columns, ", "))
	if _, err := f.WriteString(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing result log header: %w", err)
	}
	return &ResultLog{f: f, prec: prec}, nil
}

// Append writes one record. Values are dimensional control values in
// column order; iter is 1-based.
func (l *ResultLog) Append(iter int, values []float64, objective float64) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d, ", iter)
	for _, v := range values {
		fmt.Fprintf(&sb, "%.*e, ", l.prec, v)
	}
	fmt.Fprintf(&sb, "%.*e\n", l.prec, objective)
	if _, err := l.f.WriteString(sb.String()); err != nil {
		return fmt.Errorf("writing result log record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (l *ResultLog) Close() error {
	return l.f.Close()
}
