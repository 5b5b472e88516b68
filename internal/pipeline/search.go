package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/coworking-map/internal/dataset"
	"github.com/sells-group/coworking-map/internal/model"
)

// State is the session state carried between operations. The CLI keeps none
// across invocations; the HTTP API holds one per server.
type State struct {
	Query      string
	LastSearch *model.Dataset
}

// Search returns the rows of ds in which query occurs, ignoring case, in the
// file rendering of any column (placeholders and coordinates included). An
// empty query matches every row. Columns and row order are preserved.
func Search(ds *model.Dataset, query string) *model.Dataset {
	needle := strings.ToLower(query)
	return ds.Filter(func(l model.Listing) bool {
		if needle == "" {
			return true
		}
		for _, col := range ds.Columns {
			if strings.Contains(strings.ToLower(l.Cell(col)), needle) {
				return true
			}
		}
		return false
	})
}

// SearchFile filters the clean dataset at cleanPath, overwrites searchPath
// with the matches and records them in state. A missing clean file is a
// PrerequisiteError naming the clean step.
func SearchFile(ctx context.Context, cleanPath, searchPath, query string, state *State) (*model.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds, err := readInput(cleanPath, model.OperationClean)
	if err != nil {
		return nil, err
	}

	result := Search(ds, query)
	if err := dataset.Write(searchPath, result); err != nil {
		return nil, err
	}
	if state != nil {
		state.Query = query
		state.LastSearch = result
	}

	zap.L().Info("pipeline: search complete",
		zap.String("query", query),
		zap.Int("matches", result.Len()),
		zap.Int("rows", ds.Len()),
	)
	return result, nil
}
