package job

import (
	"fmt"
	"io"
	"os"
	"os/exec"
)

// RunScript executes an external program with the given arguments. When
// verbose is false the program's standard output is discarded; standard
// error is always inherited. A non-zero exit status is returned as an error.
func RunScript(name string, args []string, verbose bool) error {
	cmd := exec.Command(name, args...)
	if verbose {
		cmd.Stdout = os.Stdout
	} else {
		cmd.Stdout = io.Discard
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("script %s failed: %w", name, err)
	}
	return nil
}
