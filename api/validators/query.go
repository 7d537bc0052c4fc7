package validators

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/pagination"
)

func queryError(key, problem string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, key+" "+problem).
		WithDetails(map[string]string{key: problem})
}

// ParseQueryInt reads key as an integer in [lo, hi], returning fallback when
// the parameter is absent or blank.
func ParseQueryInt(r *http.Request, key string, fallback, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return 0, queryError(key, "must be an integer")
	case n < lo || n > hi:
		return 0, queryError(key, "out of range")
	}
	return n, nil
}

// ParsePage reads the skip and limit parameters used by every admin listing.
func ParsePage(r *http.Request) (pagination.Params, error) {
	var (
		page pagination.Params
		err  error
	)
	if page.Skip, err = ParseQueryInt(r, "skip", 0, 0, math.MaxInt32); err != nil {
		return pagination.Params{}, err
	}
	if page.Limit, err = ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit); err != nil {
		return pagination.Params{}, err
	}
	return page, nil
}
