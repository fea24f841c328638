package pagination

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const (
	DefaultLimit = 20
	// MaxLimit caps how many rows a single page may hold.
	MaxLimit = 100
)

// Params holds cursor pagination inputs from controllers.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the first row of the next page in a (timestamp DESC, id DESC) ordering.
type Cursor struct {
	At time.Time
	ID uuid.UUID
}

// Page is one slice of an ordered listing. NextCursor is empty on the last page.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer returns the normalized limit plus one to detect the next page.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Split trims rows fetched with LimitWithBuffer to the page size and derives the
// cursor of the next page from the first row left out.
func Split[T any](rows []T, limit int, key func(T) Cursor) Page[T] {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return Page[T]{Items: rows}
	}
	return Page[T]{Items: rows[:limit], NextCursor: EncodeCursor(key(rows[limit]))}
}

// EncodeCursor builds an opaque URL-safe cursor string.
func EncodeCursor(cursor Cursor) string {
	payload := cursor.At.UTC().Format(time.RFC3339Nano) + "|" + cursor.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a cursor string. An empty value yields a nil cursor; a
// malformed one is a validation error.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, invalidCursor(err)
	}
	at, id, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return nil, invalidCursor(nil)
	}
	t, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return nil, invalidCursor(err)
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, invalidCursor(err)
	}
	return &Cursor{At: t, ID: parsedID}, nil
}

func invalidCursor(err error) error {
	if err == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor").
			WithDetails(map[string]any{"field": "cursor"})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
		WithDetails(map[string]any{"field": "cursor"})
}
