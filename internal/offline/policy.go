// Package offline describes the boundary between the storefront and the browser's offline
// cache: which same-origin assets may be served from cache when the network fails, and
// which requests must always go to the network.
package offline

import (
	"net"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront/pkg/config"
)

type Strategy string

const (
	// StrategyNetworkFirst fetches from the network and falls back to the cached copy.
	StrategyNetworkFirst Strategy = "network_first"
	// StrategyBypass never touches the cache.
	StrategyBypass Strategy = "bypass"
)

const NavigationFallback = "/"

// Decision is the cache treatment for one request.
type Decision struct {
	Strategy Strategy `json:"strategy"`
	Reason   string   `json:"reason"`
}

func (d Decision) Cacheable() bool {
	return d.Strategy == StrategyNetworkFirst
}

type Policy struct {
	cacheName   string
	assets      map[string]struct{}
	bypassHosts []string
	bypassPaths map[string]struct{}
	maxAge      int
}

// NewPolicy builds the policy from configuration. catalogPath is the public path of the
// catalog document, which is always fetched fresh.
func NewPolicy(cfg config.OfflineConfig, catalogPath string) *Policy {
	p := &Policy{
		cacheName:   strings.TrimSpace(cfg.CacheName),
		assets:      map[string]struct{}{},
		bypassPaths: map[string]struct{}{},
		maxAge:      cfg.AssetsMaxAge,
	}
	for _, a := range cfg.Assets {
		if clean := cleanPath(a); clean != "" {
			p.assets[clean] = struct{}{}
		}
	}
	for _, h := range cfg.BypassHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			p.bypassHosts = append(p.bypassHosts, h)
		}
	}
	if clean := cleanPath(catalogPath); clean != "" {
		p.bypassPaths[clean] = struct{}{}
		delete(p.assets, clean)
	}
	return p
}

func (p *Policy) CacheName() string { return p.cacheName }

// Decide classifies a request. origin is the storefront's own host; an empty origin
// treats every host not on the bypass list as same-origin.
func (p *Policy) Decide(method string, u *url.URL, origin string) Decision {
	if method != http.MethodGet {
		return Decision{Strategy: StrategyBypass, Reason: "method"}
	}
	if u == nil {
		return Decision{Strategy: StrategyBypass, Reason: "invalid_url"}
	}
	host := strings.ToLower(u.Hostname())
	if host != "" {
		if p.isBypassHost(host) {
			return Decision{Strategy: StrategyBypass, Reason: "third_party_host"}
		}
		if origin != "" && !strings.EqualFold(host, hostOnly(origin)) {
			return Decision{Strategy: StrategyBypass, Reason: "cross_origin"}
		}
	}
	clean := cleanPath(u.Path)
	if _, ok := p.bypassPaths[clean]; ok {
		return Decision{Strategy: StrategyBypass, Reason: "catalog_source"}
	}
	if _, ok := p.assets[clean]; ok {
		return Decision{Strategy: StrategyNetworkFirst, Reason: "allow_list"}
	}
	return Decision{Strategy: StrategyBypass, Reason: "not_listed"}
}

func (p *Policy) isBypassHost(host string) bool {
	for _, h := range p.bypassHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// CacheControl returns the Cache-Control value served with a same-origin GET of path.
func (p *Policy) CacheControl(urlPath string) string {
	clean := cleanPath(urlPath)
	if _, ok := p.bypassPaths[clean]; ok {
		return "no-store"
	}
	if _, ok := p.assets[clean]; ok {
		// network-first: the browser must revalidate before reusing its copy
		return "no-cache"
	}
	if p.maxAge > 0 {
		return "public, max-age=" + strconv.Itoa(p.maxAge)
	}
	return "no-cache"
}

// Manifest is published to the client-side cache worker.
type Manifest struct {
	CacheName          string   `json:"cacheName"`
	Strategy           Strategy `json:"strategy"`
	NavigationFallback string   `json:"navigationFallback"`
	Assets             []string `json:"assets"`
	BypassHosts        []string `json:"bypassHosts"`
	BypassPaths        []string `json:"bypassPaths"`
	BypassMethods      string   `json:"bypassMethods"`
}

func (p *Policy) Manifest() Manifest {
	hosts := append([]string(nil), p.bypassHosts...)
	sort.Strings(hosts)
	return Manifest{
		CacheName:          p.cacheName,
		Strategy:           StrategyNetworkFirst,
		NavigationFallback: NavigationFallback,
		Assets:             sortedKeys(p.assets),
		BypassHosts:        hosts,
		BypassPaths:        sortedKeys(p.bypassPaths),
		BypassMethods:      "non-GET",
	}
}

func cleanPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return path.Clean(raw)
}

func hostOnly(origin string) string {
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		return u.Hostname()
	}
	if host, _, err := net.SplitHostPort(origin); err == nil {
		return host
	}
	return origin
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
