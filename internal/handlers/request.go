package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

var errEmptyBody = errors.New("request body is empty")

// parseChildID reads the {childId} path value
func parseChildID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("childId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid child id %q", r.PathValue("childId"))
	}
	return id, nil
}

// decodeJSON reads a size-limited JSON body into dest
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return errEmptyBody
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dest)
}

// queryInt reads an integer query parameter, returning def when absent or invalid
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
