package generator

import (
	"fmt"

	"github.com/pkg/errors"
)

// Stage names the pipeline step a generation failed in.
type Stage string

const (
	StageBuild    Stage = "build"
	StageInvoke   Stage = "invoke"
	StageEmpty    Stage = "empty_response"
	StageParse    Stage = "parse"
	StageValidate Stage = "validate"
)

var ErrEmptyResponse = errors.New("empty response from LLM")

// GenerationError is returned by Agent.Generate for every unrecoverable step.
type GenerationError struct {
	Stage Stage
	Err   error
}

func (e *GenerationError) Error() string {
	switch e.Stage {
	case StageBuild:
		return fmt.Sprintf("failed to build prompt: %v", e.Err)
	case StageInvoke:
		return fmt.Sprintf("language model call failed: %v", e.Err)
	case StageEmpty:
		return e.Err.Error()
	case StageParse:
		return fmt.Sprintf("could not read model response: %v", e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StageOf reports the failing stage of err, or "" when err is not a
// GenerationError.
func StageOf(err error) Stage {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Stage
	}
	return ""
}
