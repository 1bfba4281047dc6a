package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// segmentIDFromPath extracts the numeric id from a "segment-<id>.log" path.
// A path that doesn't match the pattern yields 0, which is safe here since
// callers only use the result to compute a maximum.
func segmentIDFromPath(dataPath string) uint64 {
	name := filepath.Base(dataPath)
	name = strings.TrimSuffix(name, ".log")
	name = strings.TrimPrefix(name, "segment-")
	id, err := strconv.ParseUint(name, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
