package usecase

import (
	"context"
	"fmt"

	"flowdiagram/internal/domain/entity"
	"flowdiagram/internal/domain/repository"
)

type DiagramUsecase interface {
	ListDiagrams(ctx context.Context) ([]*entity.Diagram, error)
	GetDiagram(ctx context.Context, id string) (*entity.Diagram, error)
	DeleteDiagram(ctx context.Context, id string) error
	ExportText(ctx context.Context, id string) (string, error)
}

var _ DiagramUsecase = (*DiagramService)(nil)

type DiagramService struct {
	repo    repository.DiagramRepository
	archive DiagramArchive
}

func NewDiagramService(repo repository.DiagramRepository, archive DiagramArchive) *DiagramService {
	return &DiagramService{repo: repo, archive: archive}
}

func (s *DiagramService) ListDiagrams(ctx context.Context) ([]*entity.Diagram, error) {
	diagrams, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list diagrams: %w", err)
	}
	return diagrams, nil
}

func (s *DiagramService) GetDiagram(ctx context.Context, id string) (*entity.Diagram, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}
	diagram, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get diagram %s: %w", id, err)
	}
	return diagram, nil
}

func (s *DiagramService) DeleteDiagram(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete diagram %s: %w", id, err)
	}
	if s.archive != nil {
		if err := s.archive.Remove(ctx, id); err != nil {
			return fmt.Errorf("remove archived diagram %s: %w", id, err)
		}
	}
	return nil
}

// ExportText returns the plain-text export of a stored diagram: notes
// followed by the Mermaid source.
func (s *DiagramService) ExportText(ctx context.Context, id string) (string, error) {
	diagram, err := s.GetDiagram(ctx, id)
	if err != nil {
		return "", err
	}
	if diagram == nil {
		return "", nil
	}
	return diagram.ExportText(), nil
}
