// Package job wraps the process-level collaborators the pipeline depends
// on: batch-scheduler submission for CFD stages, external script execution,
// and keyword replacement in solver dictionary files.
package job

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/biosim-lab/bioconv-core/pkg/logger"
)

// Scheduler submits a batch job and returns its scheduler-assigned ID.
// Submission is fire-and-forget: completion is never waited on.
type Scheduler interface {
	Submit(jobName, script string) (jobID string, err error)
}

// SlurmScheduler submits jobs through sbatch.
type SlurmScheduler struct {
	// HistoryFile, when set, receives one job ID per submitted job.
	HistoryFile string
}

// Submit runs sbatch and parses the job ID from its output.
func (s *SlurmScheduler) Submit(jobName, script string) (string, error) {
	cmd := exec.Command("sbatch", "--job-name="+jobName, script)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("sbatch submission of %s failed: %w", script, err)
	}

	// sbatch reports "Submitted batch job <id>"; the ID is the last field.
	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) == 0 {
		return "", fmt.Errorf("sbatch produced no output for job %s", jobName)
	}
	jobID := fields[len(fields)-1]

	if s.HistoryFile != "" {
		if err := appendLine(s.HistoryFile, jobID); err != nil {
			logger.Warn("failed to record job history", "job_id", jobID, "error", err)
		}
	}

	logger.Info("submitted batch job", "name", jobName, "job_id", jobID)
	return jobID, nil
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, line)
	return err
}
