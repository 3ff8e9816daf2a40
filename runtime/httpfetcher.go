package runtime

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// HTTPFetcher implements castlib.Fetcher (and builtins.NetFetcher, the
// same narrow shape): a reference transport a standalone shockplay host
// uses when a movie's external casts and preloadNetThing targets are
// server-relative paths rather than already-absolute URLs. spec.md §6
// names two knobs for this collaborator: a base_url and a mapping from
// URL prefixes to local filesystem roots — `http(s)://` targets (and
// anything resolved against BaseURL) go out over net/http, while a
// target matching one of Roots is read straight off disk, letting a
// host serve bundled casts without standing up a file server.
type HTTPFetcher struct {
	Client  *http.Client
	BaseURL string

	// Roots maps a URL path prefix to a local directory; the longest
	// matching prefix wins. A target "casts/foo.cct" matching a root
	// registered as "casts" resolves to filepath.Join(root, "foo.cct").
	Roots map[string]string
}

// NewHTTPFetcher builds an HTTPFetcher with the given base URL (used to
// resolve a movie's relative cast-library link paths) and per-request
// timeout.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		Client:  &http.Client{Timeout: timeout},
		BaseURL: baseURL,
		Roots:   make(map[string]string),
	}
}

// MapRoot registers a local filesystem root for targets under prefix.
func (f *HTTPFetcher) MapRoot(prefix, dir string) {
	if f.Roots == nil {
		f.Roots = make(map[string]string)
	}
	f.Roots[strings.Trim(prefix, "/")] = dir
}

// Fetch resolves target to either a local file (via Roots) or an HTTP
// GET (resolved against BaseURL when target isn't already absolute),
// returning the full body either way. Non-2xx HTTP responses are
// reported as errors rather than handed back as data — a movie's
// external-cast lifecycle has no partial-content state to recover into.
func (f *HTTPFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	if local, ok := f.localPath(target); ok {
		return os.ReadFile(local)
	}

	resolved, err := f.resolveURL(target)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return nil, err
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", resolved, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %s", resolved, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// localPath reports the filesystem path target maps to under the
// longest matching entry in Roots, if any.
func (f *HTTPFetcher) localPath(target string) (string, bool) {
	if strings.Contains(target, "://") {
		return "", false
	}
	clean := strings.TrimPrefix(target, "/")

	prefixes := make([]string, 0, len(f.Roots))
	for p := range f.Roots {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if clean == p {
			return filepath.Join(f.Roots[p]), true
		}
		if strings.HasPrefix(clean, p+"/") {
			rest := strings.TrimPrefix(clean, p+"/")
			return filepath.Join(f.Roots[p], filepath.FromSlash(rest)), true
		}
	}
	return "", false
}

func (f *HTTPFetcher) resolveURL(target string) (string, error) {
	if strings.Contains(target, "://") {
		return target, nil
	}
	if f.BaseURL == "" {
		return "", fmt.Errorf("relative fetch target %q with no base_url or matching root configured", target)
	}
	base, err := url.Parse(f.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base_url %q: %w", f.BaseURL, err)
	}
	base.Path = path.Join(base.Path, target)
	return base.String(), nil
}
