package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-pos/httpx"
	"github.com/diewo77/go-pos/internal/apperr"
)

const dateLayout = "2006-01-02"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// pathID parses the {id} path value.
func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid("id", "must be a positive integer")
	}
	return uint(id), nil
}

// decode reads a JSON body into dst, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return false
	}
	return true
}

// pageParams reads ?page= and ?per_page=. Bad values fall back to the
// repository defaults.
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return page, perPage
}

func queryInt(r *http.Request, key string) (int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, apperr.Invalid(key, "must be an integer")
	}
	return n, nil
}

// queryDate parses a YYYY-MM-DD query parameter in loc, defaulting to def.
func queryDate(r *http.Request, key string, def time.Time, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, loc)
	if err != nil {
		return time.Time{}, apperr.Invalid(key, "must be a date formatted YYYY-MM-DD")
	}
	return t, nil
}
