package mongodb

import (
	"context"
	"errors"
	"log"

	"flowdiagram/internal/domain/entity"
	"flowdiagram/internal/domain/repository"
	"flowdiagram/internal/infrastructure/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDiagramRepo struct {
	col *mongo.Collection
}

func NewMongoDiagramRepo(db *mongo.Database) repository.DiagramRepository {
	col := db.Collection("diagrams")

	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "id", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "createdat", Value: -1}}},
	})

	return &MongoDiagramRepo{
		col: col,
	}
}

func (r *MongoDiagramRepo) Save(ctx context.Context, diagram *entity.Diagram) error {
	metrics.IncDBOp("put")

	_, err := r.col.InsertOne(ctx, diagram)
	if err != nil {
		metrics.IncError("mongo_diagram_repo", "save_error")
		return err
	}
	return nil
}

func (r *MongoDiagramRepo) GetByID(ctx context.Context, id string) (*entity.Diagram, error) {
	metrics.IncDBOp("get")

	var diagram entity.Diagram
	err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&diagram)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		metrics.IncError("mongo_diagram_repo", "get_error")
		return nil, err
	}
	return &diagram, nil
}

func (r *MongoDiagramRepo) List(ctx context.Context) ([]*entity.Diagram, error) {
	metrics.IncDBOp("list")

	opts := options.Find().SetSort(bson.D{bson.E{Key: "createdat", Value: -1}})
	cur, err := r.col.Find(ctx, bson.D{}, opts)
	if err != nil {
		metrics.IncError("mongo_diagram_repo", "list_error")
		return nil, err
	}
	defer func() {
		err := cur.Close(ctx)
		if err != nil {
			log.Printf("close cursor err: %s", err)
		}
	}()

	var diagrams []*entity.Diagram
	for cur.Next(ctx) {
		var d entity.Diagram
		if err := cur.Decode(&d); err != nil {
			metrics.IncError("mongo_diagram_repo", "list_decode_error")
			return nil, err
		}
		diagrams = append(diagrams, &d)
	}
	if err := cur.Err(); err != nil {
		metrics.IncError("mongo_diagram_repo", "list_cursor_error")
	}
	return diagrams, cur.Err()
}

func (r *MongoDiagramRepo) Delete(ctx context.Context, id string) error {
	metrics.IncDBOp("delete")

	res, err := r.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		metrics.IncError("mongo_diagram_repo", "delete_error")
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
