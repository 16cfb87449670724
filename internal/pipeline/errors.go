package pipeline

import (
	"errors"
	"fmt"

	"github.com/mlowdi/jobsearcher/internal/config"
)

type Stage string

const (
	StageFetch   Stage = "fetch"
	StageScore   Stage = "score"
	StageStore   Stage = "store"
	StagePublish Stage = "publish"
)

// Process exit codes of a run.
const (
	ExitOK      = 0
	ExitOther   = 1
	ExitFetch   = 2
	ExitScore   = 3
	ExitPublish = 4
)

var ErrRunInProgress = errors.New("a run is already in progress")

// StageError tags a run failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ExitCode maps a run error onto the process exit contract. Scoring and
// persistence share code 3, and so do configuration errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var se *StageError
	if errors.As(err, &se) {
		switch se.Stage {
		case StageFetch:
			return ExitFetch
		case StageScore, StageStore:
			return ExitScore
		case StagePublish:
			return ExitPublish
		}
	}

	var ce *config.ConfigurationError
	if errors.As(err, &ce) {
		return ExitScore
	}
	return ExitOther
}
