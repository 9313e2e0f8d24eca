package corpus

import "errors"

// ErrNotDirectory is returned when the corpus path is not a directory.
var ErrNotDirectory = errors.New("corpus path is not a directory")
