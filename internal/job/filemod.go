package job

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// WriteWithReplacements rewrites a solver dictionary file in place,
// substituting the value of every line whose first token matches a key in
// replacements. Lines are expected in the OpenFOAM "key value;" form;
// unmatched lines pass through untouched.
func WriteWithReplacements(path string, replacements map[string]float64) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read dictionary file %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		value, ok := replacements[fields[0]]
		if !ok {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		lines[i] = indent + fields[0] + "    " + formatValue(value) + ";"
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write dictionary file %s: %w", path, err)
	}
	return nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
