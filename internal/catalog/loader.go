package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const maxDocumentBytes = 8 << 20

// Loader fetches the catalog document once. Concurrent callers share a single fetch;
// a failed fetch is not cached so the next call retries.
type Loader struct {
	source   string
	timeout  time.Duration
	defaults ShippingConfig
	client   *http.Client
	logg     *logger.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	loaded *Catalog
}

func NewLoader(cfg config.CatalogConfig, defaults ShippingConfig, client *http.Client, logg *logger.Logger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Loader{
		source:   strings.TrimSpace(cfg.Source),
		timeout:  cfg.LoadTimeout,
		defaults: defaults,
		client:   client,
		logg:     logg,
	}
}

// Load returns the catalog, fetching it on first use.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	l.mu.RLock()
	cached := l.loaded
	l.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := l.group.Do("catalog", func() (any, error) {
		l.mu.RLock()
		cached := l.loaded
		l.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		cat, err := l.fetch(ctx)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.loaded = cat
		l.mu.Unlock()
		return cat, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalog), nil
}

// Source returns the configured catalog location.
func (l *Loader) Source() string {
	return l.source
}

func (l *Loader) fetch(ctx context.Context) (*Catalog, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	raw, err := l.read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", l.source, err)
	}

	doc, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	for _, issue := range Lint(doc) {
		if issue.Severity == SeverityWarning {
			l.logg.Warn(l.logg.WithField(ctx, "catalog_issue", issue.String()), "catalog.lint_warning")
		}
	}

	cat, err := New(doc, l.defaults)
	if err != nil {
		return nil, err
	}

	ctx = l.logg.WithFields(ctx, map[string]any{
		"source":     l.source,
		"products":   cat.Len(),
		"categories": len(cat.categories),
	})
	l.logg.Info(ctx, "catalog loaded")
	return cat, nil
}

func (l *Loader) read(ctx context.Context) ([]byte, error) {
	if l.source == "" {
		return nil, fmt.Errorf("catalog source is required")
	}
	if !isRemote(l.source) {
		return os.ReadFile(l.source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
}

// Decode parses a catalog document.
func Decode(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("decoding catalog: %w", err)
	}
	return doc, nil
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
