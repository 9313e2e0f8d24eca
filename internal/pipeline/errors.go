package pipeline

import "errors"

// ErrNoGraph is returned by a ranking step that runs before the corpus was loaded.
var ErrNoGraph = errors.New("no link graph loaded")
