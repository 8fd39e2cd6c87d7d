package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
	maxBodyBytes    = 10 << 20
)

// Pagination reads ?limit and ?page. Invalid values fall back to the defaults.
func Pagination(r *http.Request) (limit, offset int) {
	limit = DefaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= MaxPageSize {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

// PathID parses the {id} path value.
func PathID(r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// QueryInt returns the integer query parameter or def when missing or malformed.
func QueryInt(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// YearMonth reads ?year and ?month, falling back to now's month when either is
// missing, malformed or out of range.
func YearMonth(r *http.Request, now time.Time) (int, time.Month) {
	year := QueryInt(r, "year", now.Year())
	month := QueryInt(r, "month", int(now.Month()))
	if year < 1900 || year > 9999 || month < 1 || month > 12 {
		return now.Year(), now.Month()
	}
	return year, time.Month(month)
}

// ErrEmptyBody is returned by Decode for requests without a body.
var ErrEmptyBody = errors.New("empty body")

// Decode reads a JSON body into dst.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	return nil
}
