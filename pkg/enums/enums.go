package enums

import "fmt"

func oneOf[T ~string](allowed []T, v T) bool {
	for _, candidate := range allowed {
		if candidate == v {
			return true
		}
	}
	return false
}

func parse[T ~string](kind string, allowed []T, raw string) (T, error) {
	if v := T(raw); oneOf(allowed, v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}
