package tracking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "id,price\n1,50\n"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("POST /api/v1/runs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nyc_airbnb", body["project"])
		assert.Equal(t, "basic_cleaning", body["job_type"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(runResponse{ID: "run-42"})
	})

	mux.HandleFunc("GET /api/v1/artifacts/nyc_airbnb/sample.csv:latest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(artifactResponse{
			ID:          "art-1",
			Name:        "sample.csv",
			Version:     "v3",
			Filename:    "sample.csv",
			DownloadURL: server.URL + "/files/art-1",
		})
	})

	mux.HandleFunc("GET /files/art-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	})

	mux.HandleFunc("POST /api/v1/artifacts/nyc_airbnb", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "run-42", r.FormValue("run_id"))
		assert.Equal(t, "clean_sample.csv", r.FormValue("name"))
		assert.Equal(t, "clean_sample", r.FormValue("type"))
		assert.NotEmpty(t, r.FormValue("description"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(artifactResponse{
			ID:      "art-2",
			Name:    "clean_sample.csv",
			Version: "v1",
		})
	})

	mux.HandleFunc("POST /api/v1/runs/run-42/finish", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	return NewClient(server.URL, "test-key", "nyc_airbnb", t.TempDir(), 5*time.Second)
}

func TestNewRun(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server)

	run, err := client.NewRun(context.Background(), "basic_cleaning")
	require.NoError(t, err)
	assert.Equal(t, "run-42", run.ID)
}

func TestUseArtifactDownloadsFile(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server)

	run, err := client.NewRun(context.Background(), "basic_cleaning")
	require.NoError(t, err)

	localPath, err := run.UseArtifact(context.Background(), "sample.csv:latest")
	require.NoError(t, err)
	assert.Equal(t, "sample.csv", filepath.Base(localPath))

	body, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(body))
}

func TestUseArtifactNotFound(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server)

	run := &Run{ID: "run-42", client: client}
	_, err := run.UseArtifact(context.Background(), "missing.csv:latest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve artifact")
}

func TestLogArtifact(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server)

	localPath := filepath.Join(t.TempDir(), "clean_sample.csv")
	require.NoError(t, os.WriteFile(localPath, []byte(sampleCSV), 0644))

	run := &Run{ID: "run-42", client: client}
	ref, err := run.LogArtifact(context.Background(), localPath,
		"clean_sample.csv", "clean_sample", "Data with outliers removed")
	require.NoError(t, err)
	assert.Equal(t, "clean_sample.csv:v1", ref.String())
}

func TestLogArtifactMissingLocalFile(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server)

	run := &Run{ID: "run-42", client: client}
	_, err := run.LogArtifact(context.Background(),
		filepath.Join(t.TempDir(), "nope.csv"), "clean_sample.csv", "clean_sample", "desc")
	require.Error(t, err)
}

func TestRunFinish(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server)

	run := &Run{ID: "run-42", client: client}
	require.NoError(t, run.Finish(context.Background()))

	other := &Run{ID: "run-unknown", client: client}
	require.Error(t, other.Finish(context.Background()))
}
