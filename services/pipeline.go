package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"rental-cleaning/models"
	"rental-cleaning/storage"
	"rental-cleaning/tracking"
	"rental-cleaning/utils"
)

// ArtifactRun is the slice of the tracking client the pipeline uses, so
// tests can inject a fake.
type ArtifactRun interface {
	UseArtifact(ctx context.Context, name string) (string, error)
	LogArtifact(ctx context.Context, localPath, name, artifactType, description string) (tracking.ArtifactRef, error)
}

// Params carry the per-run arguments of one cleaning step.
// Bounds are not validated: min_price > max_price publishes an empty snapshot.
type Params struct {
	InputArtifact     string
	OutputArtifact    string
	OutputType        string
	OutputDescription string
	MinPrice          float64
	MaxPrice          float64
}

// Pipeline downloads a listings snapshot, cleans it, republishes the result
// as a new artifact and removes the staged file.
type Pipeline struct {
	cleaner    *Cleaner
	stagingDir string
	logger     *utils.Logger
}

// NewPipeline creates a Pipeline writing staged output files under stagingDir.
func NewPipeline(cleaner *Cleaner, stagingDir string, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		cleaner:    cleaner,
		stagingDir: stagingDir,
		logger:     logger,
	}
}

// Run executes one cleaning step end to end. Any failure aborts the run:
// nothing is published unless the output file was fully written, and the
// staged file is only removed after a successful publish.
func (p *Pipeline) Run(ctx context.Context, run ArtifactRun, params Params) (tracking.ArtifactRef, *models.Snapshot, *models.CleanStats, error) {
	p.logger.Info("[pipeline] Downloading artifact %s", params.InputArtifact)
	inputPath, err := run.UseArtifact(ctx, params.InputArtifact)
	if err != nil {
		return tracking.ArtifactRef{}, nil, nil, err
	}

	snapshot, err := storage.ReadSnapshot(inputPath)
	if err != nil {
		return tracking.ArtifactRef{}, nil, nil, err
	}

	cleaned, stats, err := p.cleaner.Clean(snapshot, params.MinPrice, params.MaxPrice)
	if err != nil {
		return tracking.ArtifactRef{}, nil, nil, err
	}

	outputPath := filepath.Join(p.stagingDir, params.OutputArtifact)
	if err := storage.WriteSnapshot(outputPath, cleaned); err != nil {
		return tracking.ArtifactRef{}, nil, nil, err
	}

	p.logger.Info("[pipeline] Logging artifact %s", params.OutputArtifact)
	ref, err := run.LogArtifact(ctx, outputPath, params.OutputArtifact, params.OutputType, params.OutputDescription)
	if err != nil {
		return tracking.ArtifactRef{}, nil, nil, err
	}

	if err := os.Remove(outputPath); err != nil {
		return ref, cleaned, stats, fmt.Errorf("pipeline: remove staged file: %w", err)
	}

	return ref, cleaned, stats, nil
}
