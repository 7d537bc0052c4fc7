package migrate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var (
	sqlFileRe  = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
	slugCutter = regexp.MustCompile(`[^a-z0-9]+`)
)

var (
	upMarker   = []byte("-- +goose Up")
	downMarker = []byte("-- +goose Down")
)

// parseVersion extracts the timestamp version from a migration file name.
func parseVersion(name string) (int64, bool) {
	m := sqlFileRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	return v, err == nil
}

func slug(name string) string {
	return strings.Trim(slugCutter.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// CreateSQLMigration writes an empty goose migration named
// <dir>/<YYYYMMDDHHMMSS>_<slug>.sql and returns its path.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	s := slug(name)
	if s == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", time.Now().UTC().Format(versionLayout), s))
	body := fmt.Sprintf("%s\n-- %s\n\n%s\n", upMarker, s, downMarker)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(body); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// ValidateDir checks every .sql file in dir: the name must carry a unique
// version and the body must declare both goose sections.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	names, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no migrations found in %s", dir)
	}
	sort.Strings(names)

	owners := make(map[int64]string, len(names))
	for _, path := range names {
		base := filepath.Base(path)
		version, ok := parseVersion(base)
		if !ok {
			return fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", base)
		}
		if prev, dup := owners[version]; dup {
			return fmt.Errorf("version %d used by both %s and %s", version, prev, base)
		}
		owners[version] = base

		body, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, marker := range [][]byte{upMarker, downMarker} {
			if !bytes.Contains(body, marker) {
				return fmt.Errorf("%s: missing %q", base, marker)
			}
		}
	}
	return nil
}
