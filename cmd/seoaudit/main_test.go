package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	main "github.com/seo-optimizer/llm-audit/cmd/seoaudit"
)

const page = `<!DOCTYPE html><html><head>
<title>Example Domain For Testing The CLI Tool</title>
<meta property="og:title" content="Example">
</head><body><h1>Example</h1></body></html>`

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := main.NewMain().Run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, "--help")

	require.NoError(t, err)
	assert.Contains(t, stdout, "seoaudit")
	assert.Contains(t, stdout, "--format")
}

func TestMain_Run_NoArgs(t *testing.T) {
	t.Parallel()

	_, _, err := run(t)

	assert.Error(t, err)
}

func TestMain_Run_RequiresURLOrFile(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, "--format", "json")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "URL or --file")
}

func TestMain_Run_RejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, "--format", "xml", "https://example.com")

	assert.Error(t, err)
}

func TestMain_Run_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))

	stdout, _, err := run(t, "--file", path, "--format", "json", "https://example.com")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &decoded))
	assert.Equal(t, "https://example.com", decoded["url"])
	// title 10, h1 10, og 10
	assert.Equal(t, float64(30), decoded["overallScore"])
}

func TestMain_Run_FileWithoutURL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))

	stdout, _, err := run(t, "-f", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "URL: file://")
	assert.Contains(t, stdout, "Overall score: 30/100")
}

func TestMain_Run_MissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, "--file", filepath.Join(t.TempDir(), "missing.html"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestMain_Run_FetchesURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "seoaudit-test", r.UserAgent())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	stdout, _, err := run(t, "--user-agent", "seoaudit-test", "--format", "yaml", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, stdout, "overallScore: 30")
}

func TestMain_Run_FetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, _, err := run(t, srv.URL+"/missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to audit")
	assert.Contains(t, err.Error(), "status")
}
