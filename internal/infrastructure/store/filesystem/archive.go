package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"flowdiagram/internal/domain/entity"
)

// Archive mirrors generated diagrams to disk: one directory per diagram
// with the Mermaid source, the notes, and a metadata file.
type Archive struct {
	basePath string
}

func (a *Archive) GetBasePath() string {
	return a.basePath
}

func NewArchive(basePath string) (*Archive, error) {
	info, err := os.Stat(basePath)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(basePath, 0755); mkErr != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", basePath, mkErr)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to check directory %s: %w", basePath, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("path %s exists but is not a directory", basePath)
	}

	return &Archive{
		basePath: basePath,
	}, nil
}

func (a *Archive) SaveDiagram(ctx context.Context, diagram *entity.Diagram) error {
	diagramDir := filepath.Join(a.basePath, diagram.ID)
	if err := os.MkdirAll(diagramDir, 0755); err != nil {
		return fmt.Errorf("failed to create diagram directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(diagramDir, "diagram.mmd"), []byte(diagram.Mermaid), 0644); err != nil {
		return fmt.Errorf("failed to write diagram source: %w", err)
	}
	if err := os.WriteFile(filepath.Join(diagramDir, "notes.md"), []byte(diagram.Notes), 0644); err != nil {
		return fmt.Errorf("failed to write notes: %w", err)
	}

	metadata := map[string]interface{}{
		"id":          diagram.ID,
		"flow":        diagram.Flow,
		"created_at":  time.Now(),
		"warnings":    diagram.Warnings,
	}

	metadataData, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(diagramDir, "metadata.json"), metadataData, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

func (a *Archive) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	diagramDir := filepath.Join(a.basePath, id)
	if err := os.RemoveAll(diagramDir); err != nil {
		return fmt.Errorf("failed to remove diagram directory: %w", err)
	}
	return nil
}

// ListIDs returns the IDs of all archived diagrams, identified by the
// presence of a metadata file.
func (a *Archive) ListIDs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(a.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		metadataPath := filepath.Join(a.basePath, e.Name(), "metadata.json")
		if _, err := os.Stat(metadataPath); err == nil {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}
