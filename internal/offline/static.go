package offline

import (
	"net/http"
	"strings"
)

// Static serves files from root with the policy's Cache-Control header. Navigations to
// unknown paths fall back to the shell page so the client router can take over.
func Static(p *Policy, root http.FileSystem) http.Handler {
	files := http.FileServer(root)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if !exists(root, r.URL.Path) && acceptsHTML(r) {
			r = r.Clone(r.Context())
			r.URL.Path = NavigationFallback
		}
		w.Header().Set("Cache-Control", p.CacheControl(r.URL.Path))
		files.ServeHTTP(w, r)
	})
}

func exists(root http.FileSystem, name string) bool {
	f, err := root.Open(cleanPath(name))
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

func acceptsHTML(r *http.Request) bool {
	for _, v := range r.Header.Values("Accept") {
		if strings.Contains(strings.ToLower(v), "text/html") {
			return true
		}
	}
	return false
}
