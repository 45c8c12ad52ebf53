package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_HTTPSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("id: remote_app\n"))
	}))
	t.Cleanup(server.Close)

	doc, loc, err := NewLoader().Load(context.Background(), server.URL+"/spec.yaml")

	require.NoError(t, err)
	assert.False(t, loc.IsLocal())
	val := mappingValue(t, doc, "id")
	assert.Equal(t, "remote_app", val.Value)
}

func TestLoad_HTTPErrorStatusFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	_, _, err := NewLoader().Load(context.Background(), server.URL+"/missing.yaml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}

func TestLoad_RemoteIncludeResolvesAgainstURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/specs/main.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("id: app\nmodels: !include models.yaml\n"))
	})
	mux.HandleFunc("/specs/models.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("- id: m1\n  provider: openai\n"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	doc, _, err := NewLoader().Load(context.Background(), server.URL+"/specs/main.yaml")

	require.NoError(t, err)
	models := mappingValue(t, doc, "models")
	require.Len(t, models.Content, 1)
}

func TestS3Fetcher_EndpointOverride(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("id: app\n"))
	}))
	t.Cleanup(server.Close)
	t.Setenv("FLOWSPEC_S3_ENDPOINT", server.URL)

	u, err := url.Parse("s3://my-bucket/specs/app.yaml")
	require.NoError(t, err)
	f, ok := fetcherFor("s3")
	require.True(t, ok)

	content, err := f.Fetch(context.Background(), u)

	require.NoError(t, err)
	assert.Equal(t, "/my-bucket/specs/app.yaml", gotPath)
	assert.Equal(t, "id: app\n", string(content))
}

func TestS3Fetcher_RejectsBucketOnlyURL(t *testing.T) {
	u, err := url.Parse("s3://my-bucket")
	require.NoError(t, err)
	f, _ := fetcherFor("s3")

	_, err = f.Fetch(context.Background(), u)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "want s3://bucket/key")
}

func TestGithubFetcher_RejectsShortURL(t *testing.T) {
	u, err := url.Parse("github://owner")
	require.NoError(t, err)
	f, _ := fetcherFor("github")

	_, err = f.Fetch(context.Background(), u)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "want github://owner/repo/path")
}

func TestRegisterFetcher_CustomScheme(t *testing.T) {
	RegisterFetcher("memtest", fetcherFunc(func(_ context.Context, u *url.URL) ([]byte, error) {
		return []byte("id: from_" + u.Host + "\n"), nil
	}))

	doc, _, err := NewLoader().Load(context.Background(), "memtest://store/app.yaml")

	require.NoError(t, err)
	val := mappingValue(t, doc, "id")
	assert.Equal(t, "from_store", val.Value)
}

// fetcherFunc adapts a function to the Fetcher interface.
type fetcherFunc func(ctx context.Context, u *url.URL) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	return f(ctx, u)
}

func TestFetcherFor_UnknownScheme(t *testing.T) {
	_, ok := fetcherFor("gopher")
	assert.False(t, ok)
}
