// Package pathutil parses ids out of request paths and normalizes paths
// for metric labels and span names.
package pathutil

import (
	"errors"
	"net/http"
	"strconv"
)

// ErrInvalidID is returned when a path id is not a positive integer.
var ErrInvalidID = errors.New("invalid id")

// ParseID parses a positive int64 id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// PathID parses the named wildcard of the route that matched r, for
// patterns such as "POST /profiles/{id}/bind".
func PathID(r *http.Request, name string) (int64, error) {
	return ParseID(r.PathValue(name))
}
