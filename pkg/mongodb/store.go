// Package mongodb implements the document and blob stores on top of the
// official MongoDB driver.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/goliatone/go-docforms/pkg/document"
)

// Store persists document instances in MongoDB collections.
type Store struct {
	db  *mongo.Database
	log *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger attaches a structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// NewStore wraps a database handle.
func NewStore(db *mongo.Database, opts ...StoreOption) *Store {
	s := &Store{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) collection(doc *document.Document) *mongo.Collection {
	return s.db.Collection(doc.Meta.Collection)
}

// Save inserts a new record or replaces an existing one. Fields named in
// omit stay out of the written document.
func (s *Store) Save(ctx context.Context, inst *document.Instance, omit ...string) error {
	doc := inst.Document()
	if doc.Meta.Embedded {
		return fmt.Errorf("mongodb: %s is embedded and persists through its parent", doc.Name)
	}

	record := s.encodeInstance(inst, omit)
	coll := s.collection(doc)

	if !inst.HasID() {
		id := primitive.NewObjectID()
		record["_id"] = id
		if _, err := coll.InsertOne(ctx, record); err != nil {
			return fmt.Errorf("mongodb: insert %s: %w", doc.Name, err)
		}
		inst.SetID(id)
		s.log.Debug("inserted document",
			zap.String("collection", doc.Meta.Collection),
			zap.String("id", id.Hex()))
		return nil
	}

	record["_id"] = inst.ID()
	opts := options.Replace().SetUpsert(true)
	if _, err := coll.ReplaceOne(ctx, bson.M{"_id": inst.ID()}, record, opts); err != nil {
		return fmt.Errorf("mongodb: replace %s: %w", doc.Name, err)
	}
	s.log.Debug("replaced document",
		zap.String("collection", doc.Meta.Collection),
		zap.String("id", inst.ID().Hex()))
	return nil
}

// Delete removes a stored record. Embedded and never-saved instances cannot
// be deleted.
func (s *Store) Delete(ctx context.Context, inst *document.Instance) error {
	doc := inst.Document()
	if !inst.Deletable() {
		return fmt.Errorf("mongodb: %s is embedded and cannot be deleted directly", doc.Name)
	}
	if !inst.HasID() {
		return fmt.Errorf("mongodb: %s has never been saved", doc.Name)
	}
	if _, err := s.collection(doc).DeleteOne(ctx, bson.M{"_id": inst.ID()}); err != nil {
		return fmt.Errorf("mongodb: delete %s: %w", doc.Name, err)
	}
	s.log.Debug("deleted document",
		zap.String("collection", doc.Meta.Collection),
		zap.String("id", inst.ID().Hex()))
	return nil
}

// CountConflicts counts records whose field holds value, excluding the
// instance itself once it has been saved.
func (s *Store) CountConflicts(ctx context.Context, inst *document.Instance, field string, value any) (int64, error) {
	filter := bson.M{field: encodeValue(value)}
	if inst.HasID() {
		filter["_id"] = bson.M{"$ne": inst.ID()}
	}
	n, err := s.collection(inst.Document()).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("mongodb: count %s conflicts on %s: %w", inst.Document().Name, field, err)
	}
	return n, nil
}

// Find loads the instances matching the filter in collection order.
func (s *Store) Find(ctx context.Context, doc *document.Document, filter map[string]any) ([]*document.Instance, error) {
	query := bson.M{}
	for key, value := range filter {
		query[key] = encodeValue(value)
	}

	cursor, err := s.collection(doc).Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("mongodb: find %s: %w", doc.Name, err)
	}
	defer cursor.Close(ctx)

	var out []*document.Instance
	for cursor.Next(ctx) {
		var record bson.M
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("mongodb: decode %s: %w", doc.Name, err)
		}
		inst, err := decodeInstance(doc, record)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongodb: iterate %s: %w", doc.Name, err)
	}
	return out, nil
}

// encodeInstance flattens an instance into a BSON document, skipping omitted
// fields and nil values.
func (s *Store) encodeInstance(inst *document.Instance, omit []string) bson.M {
	omitted := make(map[string]bool, len(omit))
	for _, name := range omit {
		omitted[name] = true
	}

	record := bson.M{}
	for name, value := range inst.Values() {
		if omitted[name] || value == nil {
			continue
		}
		record[name] = encodeValue(value)
	}
	return record
}

func encodeValue(value any) any {
	switch v := value.(type) {
	case *document.Instance:
		return encodeEmbedded(v)
	case []*document.Instance:
		list := make(bson.A, 0, len(v))
		for _, item := range v {
			list = append(list, encodeEmbedded(item))
		}
		return list
	case *document.FileValue:
		return bson.M{"_id": v.ID, "filename": v.Name, "content_type": v.ContentType, "length": v.Length}
	default:
		return value
	}
}

func encodeEmbedded(inst *document.Instance) bson.M {
	record := bson.M{}
	for name, value := range inst.Values() {
		if value == nil {
			continue
		}
		record[name] = encodeValue(value)
	}
	return record
}

// decodeInstance rebuilds an instance from a stored BSON document. Unknown
// keys are ignored so schema evolution does not break loads.
func decodeInstance(doc *document.Document, record bson.M) (*document.Instance, error) {
	inst := document.NewInstance(doc)
	if id, ok := record["_id"].(primitive.ObjectID); ok {
		inst.SetID(id)
	}

	for _, field := range doc.Fields() {
		raw, ok := record[field.Name]
		if !ok || raw == nil {
			continue
		}
		value, err := decodeValue(field, raw)
		if err != nil {
			return nil, fmt.Errorf("mongodb: decode %s.%s: %w", doc.Name, field.Name, err)
		}
		if err := inst.Set(field.Name, value); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

func decodeValue(field document.Field, raw any) (any, error) {
	switch field.Kind {
	case document.KindInt:
		switch v := raw.(type) {
		case int32:
			return int64(v), nil
		case int64:
			return v, nil
		}
	case document.KindFloat, document.KindDecimal:
		if v, ok := raw.(float64); ok {
			return v, nil
		}
	case document.KindDateTime:
		switch v := raw.(type) {
		case primitive.DateTime:
			return v.Time().UTC(), nil
		case time.Time:
			return v.UTC(), nil
		}
	case document.KindFile:
		if v, ok := raw.(bson.M); ok {
			return decodeFile(v), nil
		}
	case document.KindEmbedded:
		if v, ok := raw.(bson.M); ok && field.Embedded != nil {
			return decodeInstance(field.Embedded, v)
		}
	case document.KindList:
		if items, ok := raw.(bson.A); ok && field.Item != nil {
			return decodeList(field, items)
		}
	}
	return raw, nil
}

func decodeList(field document.Field, items bson.A) (any, error) {
	if field.Item.Kind == document.KindEmbedded && field.Item.Embedded != nil {
		out := make([]*document.Instance, 0, len(items))
		for _, item := range items {
			record, ok := item.(bson.M)
			if !ok {
				return nil, fmt.Errorf("list item is not a document")
			}
			inst, err := decodeInstance(field.Item.Embedded, record)
			if err != nil {
				return nil, err
			}
			out = append(out, inst)
		}
		return out, nil
	}

	out := make([]any, 0, len(items))
	for _, item := range items {
		value, err := decodeValue(*field.Item, item)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

func decodeFile(record bson.M) *document.FileValue {
	file := &document.FileValue{}
	if id, ok := record["_id"].(primitive.ObjectID); ok {
		file.ID = id
	}
	if name, ok := record["filename"].(string); ok {
		file.Name = name
	}
	if ct, ok := record["content_type"].(string); ok {
		file.ContentType = ct
	}
	switch length := record["length"].(type) {
	case int64:
		file.Length = length
	case int32:
		file.Length = int64(length)
	}
	return file
}
