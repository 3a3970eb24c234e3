package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/shelfstats/shelfstats-go/analytics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func pathID(r *http.Request) (int, error) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// windowQuery decodes the inclusive [from, until] window from RFC 3339 query
// parameters. A window with from after until is accepted and simply matches
// nothing downstream.
func windowQuery(r *http.Request) (analytics.TimeWindow, error) {
	from, err := timeQuery(r, "from")
	if err != nil {
		return analytics.TimeWindow{}, err
	}

	until, err := timeQuery(r, "until")
	if err != nil {
		return analytics.TimeWindow{}, err
	}

	return analytics.NewTimeWindow(from, until), nil
}

func timeQuery(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing query parameter %q", key)
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %q: %v", key, err)
	}

	return t, nil
}
