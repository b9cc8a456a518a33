package entity

import (
	"time"

	"github.com/google/uuid"
)

// GenerationResult is the validated two-field payload produced by the model.
type GenerationResult struct {
	Mermaid string `json:"mermaid"`
	Notes   string `json:"notes"`
}

type Diagram struct {
	ID        string            `json:"id"`
	Flow      string            `json:"flow"`
	Mermaid   string            `json:"mermaid"`
	Notes     string            `json:"notes"`
	Warnings  []*DiagramWarning `json:"warnings,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// DiagramWarning is a non-fatal lint finding for an archived diagram.
type DiagramWarning struct {
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func NewDiagram(flow string, result GenerationResult) *Diagram {
	return &Diagram{
		ID:        uuid.New().String(),
		Flow:      flow,
		Mermaid:   result.Mermaid,
		Notes:     result.Notes,
		CreatedAt: time.Now(),
	}
}

// ExportText is the plain-text export format: notes followed by the
// diagram source.
func (d *Diagram) ExportText() string {
	return d.Notes + "\n\n" + d.Mermaid
}
