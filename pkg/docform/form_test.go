package docform

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-docforms/pkg/document"
	"github.com/goliatone/go-docforms/pkg/forms"
	"github.com/goliatone/go-docforms/pkg/testsupport"
)

func mustDef(t *testing.T, doc *document.Document, opts ...Option) *Definition {
	t.Helper()
	def, err := NewDefinition(doc, opts...)
	if err != nil {
		t.Fatalf("definition: %v", err)
	}
	return def
}

func TestForm_UnboundIsNeverValid(t *testing.T) {
	form, err := NewForm(mustDef(t, articleSchema()))
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if form.Bound() {
		t.Fatalf("form without data must be unbound")
	}
	if form.Valid(context.Background()) {
		t.Fatalf("unbound form must not be valid")
	}
}

func TestForm_ValidBindingProducesCleanedData(t *testing.T) {
	form, err := NewForm(mustDef(t, articleSchema()), WithData(url.Values{
		"title":     {"Hello"},
		"slug":      {"hello"},
		"body":      {"content"},
		"published": {"true"},
		"views":     {"12"},
	}))
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if !form.Valid(context.Background()) {
		t.Fatalf("expected valid form, errors: %v", form.Errors())
	}

	want := map[string]any{
		"title":     "Hello",
		"slug":      "hello",
		"body":      "content",
		"published": true,
		"views":     int64(12),
	}
	if diff := cmp.Diff(want, form.CleanedData()); diff != "" {
		t.Fatalf("cleaned data mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_FieldErrorsBlockValidation(t *testing.T) {
	form, err := NewForm(mustDef(t, articleSchema()), WithData(url.Values{
		"slug":  {"Has Spaces"},
		"views": {"not a number"},
	}))
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if form.Valid(context.Background()) {
		t.Fatalf("expected invalid form")
	}

	errs := form.Errors()
	if len(errs.Field("title")) == 0 {
		t.Fatalf("missing required title error: %v", errs)
	}
	if len(errs.Field("slug")) == 0 {
		t.Fatalf("missing pattern error: %v", errs)
	}
	if len(errs.Field("views")) == 0 {
		t.Fatalf("missing coercion error: %v", errs)
	}
}

func TestForm_SaveWithoutCommitDoesNotTouchStore(t *testing.T) {
	store := testsupport.NewMemoryStore()
	form, err := NewForm(mustDef(t, articleSchema()),
		WithStore(store),
		WithData(url.Values{"title": {"Hello"}}),
	)
	if err != nil {
		t.Fatalf("form: %v", err)
	}

	inst, err := form.Save(context.Background(), false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if inst.Get("title") != "Hello" {
		t.Fatalf("instance not populated: %v", inst.Values())
	}
	if store.SaveCalls != 0 {
		t.Fatalf("store must not be touched on commit=false, got %d calls", store.SaveCalls)
	}
	if inst.HasID() {
		t.Fatalf("uncommitted instance must not get an id")
	}
}

func TestForm_SaveCommitPersists(t *testing.T) {
	store := testsupport.NewMemoryStore()
	form, err := NewForm(mustDef(t, articleSchema()),
		WithStore(store),
		WithData(url.Values{"title": {"Hello"}}),
	)
	if err != nil {
		t.Fatalf("form: %v", err)
	}

	inst, err := form.Save(context.Background(), true)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !inst.HasID() {
		t.Fatalf("committed instance must get an id")
	}
	if store.Stored(inst.ID()) != inst {
		t.Fatalf("instance not stored")
	}
}

func TestForm_SaveInvalidIsMisuse(t *testing.T) {
	form, err := NewForm(mustDef(t, articleSchema()), WithData(url.Values{}))
	if err != nil {
		t.Fatalf("form: %v", err)
	}

	_, err = form.Save(context.Background(), false)
	if err == nil {
		t.Fatalf("expected misuse error")
	}
	if !strings.Contains(err.Error(), "could not be created") {
		t.Fatalf("new instance misuse says created, got %q", err.Error())
	}
}

func TestForm_SaveInvalidExistingSaysChanged(t *testing.T) {
	store := testsupport.NewMemoryStore()
	existing := document.NewInstance(articleSchema())
	if err := existing.Set("title", "old"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Save(context.Background(), existing); err != nil {
		t.Fatalf("seed: %v", err)
	}

	form, err := NewForm(mustDef(t, articleSchema()),
		WithInstance(existing),
		WithData(url.Values{}),
	)
	if err != nil {
		t.Fatalf("form: %v", err)
	}

	_, err = form.Save(context.Background(), false)
	if err == nil || !strings.Contains(err.Error(), "could not be changed") {
		t.Fatalf("existing instance misuse says changed, got %v", err)
	}
}

func TestForm_UniquenessConflict(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()

	taken := document.NewInstance(articleSchema())
	if err := taken.Set("title", "Hello"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Save(ctx, taken); err != nil {
		t.Fatalf("seed: %v", err)
	}

	form, err := NewForm(mustDef(t, articleSchema()),
		WithStore(store),
		WithData(url.Values{"title": {"Hello"}}),
	)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if form.Valid(ctx) {
		t.Fatalf("expected uniqueness conflict")
	}

	got := form.Errors().Field("title")
	if len(got) != 1 || got[0] != "Article with this Title already exists." {
		t.Fatalf("unexpected uniqueness message: %v", got)
	}
	if form.UniqueErrors().Empty() {
		t.Fatalf("uniqueness errors must be tracked separately")
	}
}

func TestForm_UniquenessExcludesSelf(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()

	existing := document.NewInstance(articleSchema())
	if err := existing.Set("title", "Hello"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Save(ctx, existing); err != nil {
		t.Fatalf("seed: %v", err)
	}

	form, err := NewForm(mustDef(t, articleSchema()),
		WithStore(store),
		WithInstance(existing),
		WithData(url.Values{"title": {"Hello"}, "body": {"updated"}}),
	)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if !form.Valid(ctx) {
		t.Fatalf("editing the owner of a unique value must pass: %v", form.Errors())
	}
}

func TestForm_UniquenessSkippedWithoutStore(t *testing.T) {
	form, err := NewForm(mustDef(t, articleSchema()), WithData(url.Values{
		"title": {"Hello"},
	}))
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if !form.Valid(context.Background()) {
		t.Fatalf("no store means no uniqueness check: %v", form.Errors())
	}
}

func TestForm_CustomCleanDisablesUniqueness(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()

	taken := document.NewInstance(articleSchema())
	if err := taken.Set("title", "Hello"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Save(ctx, taken); err != nil {
		t.Fatalf("seed: %v", err)
	}

	quiet := mustDef(t, articleSchema(), WithClean(func(f *Form) error { return nil }))
	form, err := NewForm(quiet, WithStore(store), WithData(url.Values{"title": {"Hello"}}))
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if !form.Valid(ctx) {
		t.Fatalf("custom clean without opt-in must skip uniqueness: %v", form.Errors())
	}

	strict := mustDef(t, articleSchema(), WithClean(func(f *Form) error {
		f.EnableUniqueValidation()
		return nil
	}))
	form, err = NewForm(strict, WithStore(store), WithData(url.Values{"title": {"Hello"}}))
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if form.Valid(ctx) {
		t.Fatalf("opted-in clean must run uniqueness")
	}
}

func TestForm_EmptyOptionalStringsOmittedFromWrite(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()

	form, err := NewForm(mustDef(t, articleSchema()),
		WithStore(store),
		WithData(url.Values{"title": {"Hello"}, "slug": {""}, "body": {""}}),
	)
	if err != nil {
		t.Fatalf("form: %v", err)
	}

	inst, err := form.Save(ctx, true)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if inst.Get("slug") != "" {
		t.Fatalf("in-memory value must stay, got %v", inst.Get("slug"))
	}

	omitted := map[string]bool{}
	for _, name := range store.LastOmit {
		omitted[name] = true
	}
	if !omitted["slug"] || !omitted["body"] {
		t.Fatalf("empty optional strings must be omitted from the write, got %v", store.LastOmit)
	}
}

func TestForm_PrefixedBinding(t *testing.T) {
	form, err := NewForm(mustDef(t, articleSchema()),
		WithPrefix("article-0"),
		WithData(url.Values{"article-0-title": {"Hello"}}),
	)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if got := form.AddPrefix("title"); got != "article-0-title" {
		t.Fatalf("unexpected prefixed name %q", got)
	}
	if !form.Valid(context.Background()) {
		t.Fatalf("prefixed data must bind: %v", form.Errors())
	}
	if form.CleanedData()["title"] != "Hello" {
		t.Fatalf("prefixed value not cleaned: %v", form.CleanedData())
	}
}

func TestForm_HasChanged(t *testing.T) {
	schema := articleSchema()
	existing := document.NewInstance(schema)
	if err := existing.Set("title", "Hello"); err != nil {
		t.Fatalf("set: %v", err)
	}

	unchanged, err := NewForm(mustDef(t, schema),
		WithInstance(existing),
		WithData(url.Values{"title": {"Hello"}}),
	)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if unchanged.HasChanged() {
		t.Fatalf("identical submission must not count as changed: %v", unchanged.ChangedFields())
	}

	changed, err := NewForm(mustDef(t, schema),
		WithInstance(existing),
		WithData(url.Values{"title": {"Hello"}, "published": {"true"}}),
	)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if !changed.HasChanged() {
		t.Fatalf("checkbox flip must count as changed")
	}
}

func TestForm_InitialOverlayAndDisplay(t *testing.T) {
	schema := articleSchema()
	existing := document.NewInstance(schema)
	if err := existing.Set("title", "Stored"); err != nil {
		t.Fatalf("set: %v", err)
	}

	form, err := NewForm(mustDef(t, schema),
		WithInstance(existing),
		WithInitial(map[string]any{"title": "Overridden"}),
	)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if got := form.DisplayValue("title"); got != "Overridden" {
		t.Fatalf("explicit initial must override instance data, got %q", got)
	}
}

func TestForm_FileUploadStoredUnderUniqueName(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	blobs := testsupport.NewMemoryBlobs()
	blobs.Seed("img.png", []byte("old"))

	schema := document.MustNew("Gallery", []document.Field{
		{Name: "name", Kind: document.KindString},
		{Name: "cover", Kind: document.KindFile},
	})

	form, err := NewForm(mustDef(t, schema),
		WithStore(store),
		WithBlobStore(blobs),
		WithData(url.Values{"name": {"g"}}),
		WithFiles(map[string]*forms.Upload{
			"cover": {Name: "img.png", ContentType: "image/png", Content: []byte("new")},
		}),
	)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	inst, err := form.Save(ctx, true)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	file, ok := inst.Get("cover").(*document.FileValue)
	if !ok {
		t.Fatalf("expected stored file value, got %T", inst.Get("cover"))
	}
	if file.Name != "img_1.png" {
		t.Fatalf("colliding name must get a suffix, got %q", file.Name)
	}
	if data, ok := blobs.Blob("img_1.png"); !ok || string(data) != "new" {
		t.Fatalf("blob content not stored: %q %v", data, ok)
	}
}

func TestForm_UploadWithoutBlobStoreFails(t *testing.T) {
	schema := document.MustNew("Gallery", []document.Field{
		{Name: "cover", Kind: document.KindFile},
	})
	form, err := NewForm(mustDef(t, schema),
		WithData(url.Values{}),
		WithFiles(map[string]*forms.Upload{
			"cover": {Name: "img.png", Content: []byte("x")},
		}),
	)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if form.Valid(context.Background()) {
		t.Fatalf("upload without blob store must fail validation")
	}
	if len(form.Errors().NonField()) == 0 {
		t.Fatalf("expected non-field error, got %v", form.Errors())
	}
}
