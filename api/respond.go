package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
)

// errorBody is the {"detail": ...} envelope every error uses.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode_response_failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Internal Server Error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, detail)
}

// paramError is an unparseable or missing query/path parameter; handlers
// answer it with 422.
type paramError struct {
	name   string
	reason string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("Invalid query parameter '%s': %s", e.name, e.reason)
}

// intQuery parses an optional integer query parameter. Absent or blank
// values yield def.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, reason: "expected an integer"}
	}
	return v, nil
}

// optionalInt is intQuery for filters where absence means "no filter".
func optionalInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &paramError{name: name, reason: "expected an integer"}
	}
	return &v, nil
}

func optionalFloat(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &paramError{name: name, reason: "expected a number"}
	}
	return &v, nil
}

func requiredFloat(r *http.Request, name string) (float64, error) {
	v, err := optionalFloat(r, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, &paramError{name: name, reason: "field required"}
	}
	return *v, nil
}

// boundedLimit applies the default and caps the value at max.
func boundedLimit(r *http.Request, def, max int) (int, error) {
	limit, err := intQuery(r, "limit", def)
	if err != nil {
		return 0, err
	}
	if limit < 0 {
		return 0, &paramError{name: "limit", reason: "must be non-negative"}
	}
	if limit > max {
		limit = max
	}
	return limit, nil
}
