package pipeline

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coworking-map/internal/dataset"
	"github.com/sells-group/coworking-map/internal/model"
)

var (
	// ErrMissingPrerequisite matches every PrerequisiteError.
	ErrMissingPrerequisite = eris.New("pipeline: missing prerequisite")

	// ErrEmptyDataset is returned when an operation needs at least one row.
	ErrEmptyDataset = eris.New("pipeline: dataset is empty")
)

// PrerequisiteError reports that an input file produced by an earlier step
// does not exist yet.
type PrerequisiteError struct {
	Path string
	Step model.Operation
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("pipeline: %s not found, run %s first", e.Path, e.Step)
}

// Is makes errors.Is(err, ErrMissingPrerequisite) hold.
func (e *PrerequisiteError) Is(target error) bool {
	return target == ErrMissingPrerequisite
}

// readInput loads the dataset at path, mapping a missing file to a
// PrerequisiteError naming step.
func readInput(path string, step model.Operation) (*model.Dataset, error) {
	ds, err := dataset.Read(path)
	if errors.Is(err, dataset.ErrNotFound) {
		return nil, &PrerequisiteError{Path: path, Step: step}
	}
	if err != nil {
		return nil, err
	}
	return ds, nil
}
