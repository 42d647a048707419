package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gagyebu/internal/query"
)

type contextKey string

const requestIDKey contextKey = "request_id"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// extractClientIP resolves the client address, considering proxies.
func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if i := strings.IndexByte(ip, ','); i >= 0 {
			return strings.TrimSpace(ip[:i])
		}
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// parseQuerySpec builds the row-view spec from URL parameters:
// q, from, to (2006-01-02), sort (column index), dir (asc|desc),
// visible, and filter.<col>=v1,v2 for per-column value sets.
func parseQuerySpec(r *http.Request) query.Spec {
	spec := query.Default()
	params := r.URL.Query()

	spec.Search = strings.TrimSpace(params.Get("q"))

	if v := params.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			spec.From = t
		}
	}
	if v := params.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			spec.To = t
		}
	}

	if v := params.Get("sort"); v != "" {
		if col, err := strconv.Atoi(v); err == nil && col >= 0 {
			spec.SortColumn = col
		}
	}
	spec.SortDesc = params.Get("dir") == "desc"

	if v := params.Get("visible"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			spec.Visible = n
		}
	}

	for key, values := range params {
		col, ok := strings.CutPrefix(key, "filter.")
		if !ok {
			continue
		}
		idx, err := strconv.Atoi(col)
		if err != nil || idx < 0 {
			continue
		}
		var allowed []string
		for _, v := range values {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					allowed = append(allowed, part)
				}
			}
		}
		if len(allowed) > 0 {
			if spec.Filters == nil {
				spec.Filters = make(map[int][]string)
			}
			spec.Filters[idx] = allowed
		}
	}

	return spec
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
