package mongodb

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/goliatone/go-docforms/pkg/document"
)

func recipeSchema() *document.Document {
	steps := document.MustNew("RecipeStep", []document.Field{
		{Name: "text", Kind: document.KindString},
		{Name: "minutes", Kind: document.KindInt},
	}, document.WithMeta(&document.Meta{Embedded: true}))

	return document.MustNew("Recipe", []document.Field{
		{Name: "name", Kind: document.KindString, Required: true},
		{Name: "servings", Kind: document.KindInt},
		{Name: "rating", Kind: document.KindFloat},
		{Name: "vegan", Kind: document.KindBool},
		{Name: "createdAt", Kind: document.KindDateTime},
		{Name: "photo", Kind: document.KindFile},
		{Name: "steps", Kind: document.KindList, Item: &document.Field{
			Name: "step", Kind: document.KindEmbedded, Embedded: steps,
		}},
		{Name: "tags", Kind: document.KindList, Item: &document.Field{
			Name: "tag", Kind: document.KindString,
		}},
	})
}

func TestEncodeInstance_SkipsNilAndOmitted(t *testing.T) {
	inst := document.NewInstance(recipeSchema())
	if err := inst.Set("name", "soup"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := inst.Set("servings", int64(4)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := inst.Set("vegan", true); err != nil {
		t.Fatalf("set: %v", err)
	}

	store := &Store{}
	record := store.encodeInstance(inst, []string{"vegan"})

	want := bson.M{"name": "soup", "servings": int64(4)}
	if diff := cmp.Diff(want, record); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeValue_EmbeddedAndFiles(t *testing.T) {
	schema := recipeSchema()
	stepSchema := mustSchemaField(t, schema, "steps").Item.Embedded

	step := document.NewInstance(stepSchema)
	if err := step.Set("text", "chop"); err != nil {
		t.Fatalf("set: %v", err)
	}

	encoded := encodeValue([]*document.Instance{step})
	list, ok := encoded.(bson.A)
	if !ok || len(list) != 1 {
		t.Fatalf("embedded list must encode as bson array, got %T", encoded)
	}
	if diff := cmp.Diff(bson.M{"text": "chop"}, list[0]); diff != "" {
		t.Fatalf("embedded record mismatch (-want +got):\n%s", diff)
	}

	fileID := primitive.NewObjectID()
	file := encodeValue(&document.FileValue{ID: fileID, Name: "soup.jpg", ContentType: "image/jpeg", Length: 2048})
	want := bson.M{"_id": fileID, "filename": "soup.jpg", "content_type": "image/jpeg", "length": int64(2048)}
	if diff := cmp.Diff(want, file); diff != "" {
		t.Fatalf("file record mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeInstance_RoundTrip(t *testing.T) {
	schema := recipeSchema()
	id := primitive.NewObjectID()
	photoID := primitive.NewObjectID()
	created := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	record := bson.M{
		"_id":       id,
		"name":      "soup",
		"servings":  int32(4),
		"rating":    4.5,
		"vegan":     true,
		"createdAt": primitive.NewDateTimeFromTime(created),
		"photo":     bson.M{"_id": photoID, "filename": "soup.jpg", "content_type": "image/jpeg", "length": int32(2048)},
		"steps": bson.A{
			bson.M{"text": "chop", "minutes": int32(5)},
			bson.M{"text": "boil", "minutes": int32(20)},
		},
		"tags":   bson.A{"dinner", "easy"},
		"legacy": "ignored",
	}

	inst, err := decodeInstance(schema, record)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if inst.ID() != id {
		t.Fatalf("identity not restored")
	}
	if inst.Get("name") != "soup" {
		t.Fatalf("string not restored: %v", inst.Get("name"))
	}
	if inst.Get("servings") != int64(4) {
		t.Fatalf("int32 must widen to int64, got %#v", inst.Get("servings"))
	}
	if inst.Get("rating") != 4.5 {
		t.Fatalf("float not restored: %v", inst.Get("rating"))
	}
	if got := inst.Get("createdAt"); got != created {
		t.Fatalf("datetime not restored in UTC: %v", got)
	}

	photo, ok := inst.Get("photo").(*document.FileValue)
	if !ok || photo.ID != photoID || photo.Name != "soup.jpg" || photo.Length != 2048 {
		t.Fatalf("file value not restored: %#v", inst.Get("photo"))
	}

	steps, ok := inst.Get("steps").([]*document.Instance)
	if !ok || len(steps) != 2 {
		t.Fatalf("embedded list not restored: %#v", inst.Get("steps"))
	}
	if steps[1].Get("text") != "boil" || steps[1].Get("minutes") != int64(20) {
		t.Fatalf("embedded values not restored: %v", steps[1].Values())
	}

	tags, ok := inst.Get("tags").([]any)
	if !ok || len(tags) != 2 || tags[0] != "dinner" {
		t.Fatalf("scalar list not restored: %#v", inst.Get("tags"))
	}
}

func TestDecodeInstance_EncodeDecodeSymmetry(t *testing.T) {
	schema := recipeSchema()
	original := document.NewInstance(schema)
	if err := original.Set("name", "stew"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := original.Set("servings", int64(2)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := original.Set("tags", []any{"slow"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	store := &Store{}
	record := store.encodeInstance(original, nil)
	restored, err := decodeInstance(schema, record)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if diff := cmp.Diff(original.Values(), restored.Values()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func mustSchemaField(t *testing.T, doc *document.Document, name string) document.Field {
	t.Helper()
	field, ok := doc.Field(name)
	if !ok {
		t.Fatalf("%s has no field %q", doc.Name, name)
	}
	return field
}
