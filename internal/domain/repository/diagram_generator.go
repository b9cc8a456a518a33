package repository

import (
	"context"

	"flowdiagram/internal/domain/entity"
)

// DiagramGenerator produces a sequence diagram and notes for a workflow
// narrative via an external model.
type DiagramGenerator interface {
	GenerateDiagram(ctx context.Context, flow string, prompt entity.Prompt) (entity.GenerationResult, error)
}
