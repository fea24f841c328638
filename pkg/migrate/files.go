package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const versionLayout = "20060102150405"

var (
	fileNameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	slugRe     = regexp.MustCompile(`[^a-z0-9]+`)
)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert %[1]s
-- +goose StatementEnd
`

// slug turns a free-form description into the name part of a migration file.
func slug(name string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// CreateSQLMigration writes <dir>/<YYYYMMDDHHMMSS>_<slug>.sql stamped at now. A name
// already used by another migration in dir is rejected.
func CreateSQLMigration(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", errors.New("dir is required")
	}
	s := slug(name)
	if s == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	existing, err := filepath.Glob(filepath.Join(dir, "*_"+s+".sql"))
	if err != nil {
		return "", err
	}
	for _, p := range existing {
		if m := fileNameRe.FindStringSubmatch(filepath.Base(p)); m != nil && m[2] == s {
			return "", fmt.Errorf("migration %q already exists: %s", s, p)
		}
	}

	full := filepath.Join(dir, now.UTC().Format(versionLayout)+"_"+s+".sql")
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %q: %w", full, err)
	}
	_, werr := fmt.Fprintf(f, migrationTemplate, s)
	return full, multierr.Combine(werr, f.Close())
}

// ValidateDir checks the migrations of a directory on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("dir is required")
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		return err
	}
	return ValidateFS(sub)
}

// ValidateFS checks file names, version uniqueness and goose annotations of every .sql
// file at the root of fsys, reporting all problems found.
func ValidateFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	var errs error
	versions := map[string]string{}
	count := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		count++

		m := fileNameRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if _, err := time.Parse(versionLayout, m[1]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: version is not a timestamp", name))
		}
		if prev, ok := versions[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %s already used by %s", name, m[1], prev))
		}
		versions[m[1]] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		up := strings.Index(string(body), "-- +goose Up")
		down := strings.Index(string(body), "-- +goose Down")
		switch {
		case up < 0:
			errs = multierr.Append(errs, fmt.Errorf("%s: missing \"-- +goose Up\"", name))
		case down < 0:
			errs = multierr.Append(errs, fmt.Errorf("%s: missing \"-- +goose Down\"", name))
		case down < up:
			errs = multierr.Append(errs, fmt.Errorf("%s: Down section precedes Up", name))
		}
	}
	if count == 0 {
		return errors.New("no migrations found")
	}
	return errs
}
