package tracking

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// ArtifactRef identifies one published artifact version in the tracking service.
// The version is assigned server-side.
type ArtifactRef struct {
	Name    string
	Version string
}

func (r ArtifactRef) String() string {
	return r.Name + ":" + r.Version
}

// Client talks to the artifact-tracking server for one project.
type Client struct {
	http       *resty.Client
	project    string
	stagingDir string
}

// NewClient creates a tracking client. baseURL is settable so tests can
// point it at a local server.
func NewClient(baseURL, apiKey, project, stagingDir string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	if apiKey != "" {
		httpClient.SetAuthToken(apiKey)
	}

	return &Client{
		http:       httpClient,
		project:    project,
		stagingDir: stagingDir,
	}
}

// Run is one tracked pipeline run. Artifacts consumed and produced during
// the run are recorded against its server-assigned ID.
type Run struct {
	ID     string
	client *Client
}

type runResponse struct {
	ID string `json:"id"`
}

type artifactResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url"`
}

// NewRun registers a new run of the given job type.
func (c *Client) NewRun(ctx context.Context, jobType string) (*Run, error) {
	var out runResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"project": c.project, "job_type": jobType}).
		SetResult(&out).
		Post("/api/v1/runs")
	if err != nil {
		return nil, fmt.Errorf("tracking: create run: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tracking: create run: server returned %s", resp.Status())
	}

	return &Run{ID: out.ID, client: c}, nil
}

// UseArtifact resolves a named artifact and downloads its backing file into
// a fresh staging directory, returning the local path. A missing artifact or
// backing file is a resolution error.
func (r *Run) UseArtifact(ctx context.Context, name string) (string, error) {
	var meta artifactResponse
	resp, err := r.client.http.R().
		SetContext(ctx).
		SetQueryParam("run_id", r.ID).
		SetResult(&meta).
		Get("/api/v1/artifacts/" + r.client.project + "/" + name)
	if err != nil {
		return "", fmt.Errorf("tracking: resolve artifact %q: %w", name, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("tracking: resolve artifact %q: server returned %s", name, resp.Status())
	}

	dir := filepath.Join(r.client.stagingDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("tracking: create staging dir: %w", err)
	}

	filename := meta.Filename
	if filename == "" {
		filename = meta.Name
	}
	localPath := filepath.Join(dir, filename)

	dl, err := r.client.http.R().
		SetContext(ctx).
		SetOutput(localPath).
		Get(meta.DownloadURL)
	if err != nil {
		return "", fmt.Errorf("tracking: download artifact %q: %w", name, err)
	}
	if dl.IsError() {
		return "", fmt.Errorf("tracking: download artifact %q: server returned %s", name, dl.Status())
	}

	return localPath, nil
}

// LogArtifact uploads the file at localPath as a new artifact version with
// the given name, type and description. The caller keeps ownership of the
// local file; the service stores its own copy.
func (r *Run) LogArtifact(ctx context.Context, localPath, name, artifactType, description string) (ArtifactRef, error) {
	var meta artifactResponse
	resp, err := r.client.http.R().
		SetContext(ctx).
		SetFile("file", localPath).
		SetFormData(map[string]string{
			"run_id":      r.ID,
			"name":        name,
			"type":        artifactType,
			"description": description,
		}).
		SetResult(&meta).
		Post("/api/v1/artifacts/" + r.client.project)
	if err != nil {
		return ArtifactRef{}, fmt.Errorf("tracking: publish artifact %q: %w", name, err)
	}
	if resp.IsError() {
		return ArtifactRef{}, fmt.Errorf("tracking: publish artifact %q: server returned %s", name, resp.Status())
	}

	return ArtifactRef{Name: meta.Name, Version: meta.Version}, nil
}

// Finish marks the run complete on the server.
func (r *Run) Finish(ctx context.Context) error {
	resp, err := r.client.http.R().
		SetContext(ctx).
		Post("/api/v1/runs/" + r.ID + "/finish")
	if err != nil {
		return fmt.Errorf("tracking: finish run: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("tracking: finish run: server returned %s", resp.Status())
	}
	return nil
}
