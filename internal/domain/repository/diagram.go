package repository

import (
	"context"

	"flowdiagram/internal/domain/entity"
)

// DiagramRepository определяет интерфейс доступа к хранилищу диаграмм.
type DiagramRepository interface {
	Save(ctx context.Context, diagram *entity.Diagram) error
	GetByID(ctx context.Context, id string) (*entity.Diagram, error)
	List(ctx context.Context) ([]*entity.Diagram, error)
	Delete(ctx context.Context, id string) error
}
