package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDocumentStore MongoDB 文档存储（每个类型一个集合，文档 id 存在 _id）
type MongoDocumentStore[T any] struct {
	coll *mongo.Collection
}

func NewMongoDocumentStore[T any](db *mongo.Database) *MongoDocumentStore[T] {
	return &MongoDocumentStore[T]{coll: db.Collection(CollectionName[T]())}
}

var _ DocumentStore[struct{}] = (*MongoDocumentStore[struct{}])(nil)

func (s *MongoDocumentStore[T]) Find(ctx context.Context, filter Filter) ([]T, error) {
	cur, err := s.coll.Find(ctx, toBSON(filter))
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", s.coll.Name(), err)
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo decode %s: %w", s.coll.Name(), err)
	}
	return out, nil
}

func (s *MongoDocumentStore[T]) FindOne(ctx context.Context, filter Filter) (T, error) {
	var doc T
	err := s.coll.FindOne(ctx, toBSON(filter)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, ErrNotFound
	}
	if err != nil {
		return doc, fmt.Errorf("mongo find one %s: %w", s.coll.Name(), err)
	}
	return doc, nil
}

func (s *MongoDocumentStore[T]) InsertOne(ctx context.Context, doc T) (T, error) {
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return doc, fmt.Errorf("mongo insert %s: %w", s.coll.Name(), err)
	}
	return doc, nil
}

func (s *MongoDocumentStore[T]) ReplaceOne(ctx context.Context, filter Filter, doc T) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, toBSON(filter), doc, opts); err != nil {
		return fmt.Errorf("mongo replace %s: %w", s.coll.Name(), err)
	}
	return nil
}

func (s *MongoDocumentStore[T]) DeleteOne(ctx context.Context, filter Filter) error {
	if _, err := s.coll.DeleteOne(ctx, toBSON(filter)); err != nil {
		return fmt.Errorf("mongo delete %s: %w", s.coll.Name(), err)
	}
	return nil
}

func (s *MongoDocumentStore[T]) FindIn(ctx context.Context, field string, values []string) ([]T, error) {
	return s.Find(ctx, Filter{field: bson.M{"$in": values}})
}

// toBSON "id" -> "_id"
func toBSON(filter Filter) bson.M {
	m := bson.M{}
	for k, v := range filter {
		if k == "id" {
			k = "_id"
		}
		m[k] = v
	}
	return m
}
