package docform

import (
	"context"
	"net/url"
	"testing"

	"github.com/goliatone/go-docforms/pkg/document"
	"github.com/goliatone/go-docforms/pkg/testsupport"
)

func commentSchema() *document.Document {
	return document.MustNew("Comment", []document.Field{
		{Name: "author", Kind: document.KindString, Required: true},
		{Name: "body", Kind: document.KindText},
	}, document.WithMeta(&document.Meta{Embedded: true}))
}

func blogSchema() *document.Document {
	return document.MustNew("Blog", []document.Field{
		{Name: "title", Kind: document.KindString, Required: true},
		{Name: "comments", Kind: document.KindList, Item: &document.Field{
			Name: "comment", Kind: document.KindEmbedded, Embedded: commentSchema(),
		}},
	})
}

func TestNewEmbedded_ConfigErrors(t *testing.T) {
	parent := document.NewInstance(blogSchema())

	missing := mustDef(t, commentSchema())
	if _, err := NewEmbedded(missing, parent); err == nil {
		t.Fatalf("definition without an embedded field must fail")
	}

	wrongName := mustDef(t, commentSchema(), WithEmbeddedField("replies"))
	if _, err := NewEmbedded(wrongName, parent); err == nil {
		t.Fatalf("unknown parent field must fail")
	}

	notList := mustDef(t, commentSchema(), WithEmbeddedField("title"))
	if _, err := NewEmbedded(notList, parent); err == nil {
		t.Fatalf("non-list parent field must fail")
	}

	good := mustDef(t, commentSchema(), WithEmbeddedField("comments"))
	if _, err := NewEmbedded(good, nil); err == nil {
		t.Fatalf("nil parent must fail")
	}
	if _, err := NewEmbedded(good, parent); err != nil {
		t.Fatalf("valid configuration failed: %v", err)
	}
}

func TestEmbeddedForm_SaveAppendsToParentList(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()

	parent := document.NewInstance(blogSchema())
	if err := parent.Set("title", "My Blog"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Save(ctx, parent); err != nil {
		t.Fatalf("seed parent: %v", err)
	}
	store.SaveCalls = 0

	def := mustDef(t, commentSchema(), WithEmbeddedField("comments"))
	form, err := NewEmbedded(def, parent,
		WithStore(store),
		WithData(url.Values{"author": {"ann"}, "body": {"first"}}),
	)
	if err != nil {
		t.Fatalf("embedded form: %v", err)
	}

	comment, err := form.Save(ctx, true)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if comment.Get("author") != "ann" {
		t.Fatalf("embedded values not populated: %v", comment.Values())
	}
	if comment.HasID() {
		t.Fatalf("embedded instances carry no identity of their own")
	}

	list, ok := parent.Get("comments").([]*document.Instance)
	if !ok || len(list) != 1 || list[0] != comment {
		t.Fatalf("comment not appended to parent list: %v", parent.Get("comments"))
	}
	if store.SaveCalls != 1 {
		t.Fatalf("commit must persist the parent exactly once, got %d", store.SaveCalls)
	}
}

func TestEmbeddedForm_SaveWithoutCommitLeavesStoreAlone(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	parent := document.NewInstance(blogSchema())

	def := mustDef(t, commentSchema(), WithEmbeddedField("comments"))
	form, err := NewEmbedded(def, parent,
		WithStore(store),
		WithData(url.Values{"author": {"bob"}}),
	)
	if err != nil {
		t.Fatalf("embedded form: %v", err)
	}

	if _, err := form.Save(ctx, false); err != nil {
		t.Fatalf("save: %v", err)
	}
	if store.SaveCalls != 0 {
		t.Fatalf("commit=false must not touch the store")
	}
	if list, _ := parent.Get("comments").([]*document.Instance); len(list) != 0 {
		t.Fatalf("commit=false must not touch the parent list, got %d entries", len(list))
	}
}

func TestEmbeddedForm_RepeatedSaveAppendsOnce(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	parent := document.NewInstance(blogSchema())

	def := mustDef(t, commentSchema(), WithEmbeddedField("comments"))
	form, err := NewEmbedded(def, parent,
		WithStore(store),
		WithData(url.Values{"author": {"ann"}, "body": {"first"}}),
	)
	if err != nil {
		t.Fatalf("embedded form: %v", err)
	}

	if _, err := form.Save(ctx, false); err != nil {
		t.Fatalf("save without commit: %v", err)
	}
	if _, err := form.Save(ctx, true); err != nil {
		t.Fatalf("save with commit: %v", err)
	}

	list, _ := parent.Get("comments").([]*document.Instance)
	if len(list) != 1 {
		t.Fatalf("parent list must hold exactly one comment, got %d", len(list))
	}
}

func TestEmbeddedForm_InvalidDataDoesNotTouchParent(t *testing.T) {
	parent := document.NewInstance(blogSchema())
	def := mustDef(t, commentSchema(), WithEmbeddedField("comments"))
	form, err := NewEmbedded(def, parent, WithData(url.Values{}))
	if err != nil {
		t.Fatalf("embedded form: %v", err)
	}

	if _, err := form.Save(context.Background(), false); err == nil {
		t.Fatalf("invalid embedded form must not save")
	}
	if parent.Get("comments") != nil {
		t.Fatalf("parent list must stay untouched: %v", parent.Get("comments"))
	}
}
