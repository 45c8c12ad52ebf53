package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// Fetcher retrieves the raw bytes behind one URI scheme.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) ([]byte, error)
}

var (
	fetchersMu sync.RWMutex
	fetchers   = map[string]Fetcher{}
)

// RegisterFetcher installs a Fetcher for the given URI scheme, replacing any
// previous registration. The registry is process-wide and intended to be
// populated during startup, before any loads run.
func RegisterFetcher(scheme string, f Fetcher) {
	fetchersMu.Lock()
	defer fetchersMu.Unlock()
	fetchers[strings.ToLower(scheme)] = f
}

// fetcherFor returns the Fetcher registered for a scheme.
func fetcherFor(scheme string) (Fetcher, bool) {
	fetchersMu.RLock()
	defer fetchersMu.RUnlock()
	f, ok := fetchers[strings.ToLower(scheme)]
	return f, ok
}

func init() {
	httpF := &httpFetcher{client: &http.Client{Timeout: 30 * time.Second}}
	RegisterFetcher("http", httpF)
	RegisterFetcher("https", httpF)
	RegisterFetcher("file", fileFetcher{})
	RegisterFetcher("s3", &s3Fetcher{http: httpF})
	RegisterFetcher("github", &githubFetcher{http: httpF})
}

// httpFetcher retrieves content over plain HTTP(S).
type httpFetcher struct {
	client *http.Client
}

// Fetch implements Fetcher for http and https URLs.
func (f *httpFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", u, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// fileFetcher handles explicit file:// URLs.
type fileFetcher struct{}

// Fetch implements Fetcher for file URLs.
func (fileFetcher) Fetch(_ context.Context, u *url.URL) ([]byte, error) {
	return os.ReadFile(u.Path)
}

// s3Fetcher retrieves s3://bucket/key objects through their HTTPS form.
// FLOWSPEC_S3_ENDPOINT overrides the endpoint (path-style addressing) for
// S3-compatible stores; otherwise the virtual-hosted AWS form is used with
// the region from AWS_REGION, defaulting to us-east-1.
type s3Fetcher struct {
	http *httpFetcher
}

// Fetch implements Fetcher for s3 URLs.
func (f *s3Fetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid s3 URL %q: want s3://bucket/key", u)
	}

	var raw string
	if endpoint := os.Getenv("FLOWSPEC_S3_ENDPOINT"); endpoint != "" {
		raw = fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(endpoint, "/"), bucket, key)
	} else {
		region := os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-1"
		}
		raw = fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
	}

	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid s3 endpoint for %q: %w", u, err)
	}
	return f.http.Fetch(ctx, target)
}

// githubFetcher retrieves github://owner/repo/path[@ref] content through
// raw.githubusercontent.com. The ref defaults to main.
type githubFetcher struct {
	http *httpFetcher
}

// Fetch implements Fetcher for github URLs.
func (f *githubFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	owner := u.Host
	rest := strings.TrimPrefix(u.Path, "/")
	repo, path, ok := strings.Cut(rest, "/")
	if owner == "" || !ok || path == "" {
		return nil, fmt.Errorf("invalid github URL %q: want github://owner/repo/path[@ref]", u)
	}

	ref := "main"
	if before, after, found := strings.Cut(path, "@"); found {
		path, ref = before, after
	}

	raw := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", owner, repo, ref, path)
	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid github target for %q: %w", u, err)
	}
	return f.http.Fetch(ctx, target)
}
