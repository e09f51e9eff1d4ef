package generator

import (
	"testing"

	"github.com/goliatone/go-docforms/pkg/document"
	"github.com/goliatone/go-docforms/pkg/forms"
)

func TestDefault_SkipsIdentityCollectionsAndEmbedded(t *testing.T) {
	gen := Default{}
	skipped := []document.Field{
		{Name: "id", Kind: document.KindObjectID},
		{Name: "tags", Kind: document.KindList, Item: &document.Field{Name: "tags", Kind: document.KindString}},
		{Name: "meta", Kind: document.KindEmbedded},
	}
	for _, field := range skipped {
		out, err := gen.Generate(field)
		if err != nil {
			t.Fatalf("%s: %v", field.Name, err)
		}
		if out != nil {
			t.Fatalf("%s: expected skip, got %+v", field.Name, out)
		}
	}
}

func TestDefault_MapsKinds(t *testing.T) {
	gen := Default{}
	cases := []struct {
		kind       document.Kind
		wantCoerce forms.Coercion
		wantWidget string
	}{
		{document.KindString, forms.CoerceString, ""},
		{document.KindEmail, forms.CoerceString, forms.WidgetEmail},
		{document.KindURL, forms.CoerceString, forms.WidgetURL},
		{document.KindInt, forms.CoerceInt, ""},
		{document.KindDecimal, forms.CoerceFloat, ""},
		{document.KindBool, forms.CoerceBool, ""},
		{document.KindDateTime, forms.CoerceDateTime, ""},
		{document.KindRef, forms.CoerceObjectID, forms.WidgetSelect},
		{document.KindFile, forms.CoerceFile, ""},
	}
	for _, tc := range cases {
		out, err := gen.Generate(document.Field{Name: "x", Kind: tc.kind})
		if err != nil {
			t.Fatalf("%s: %v", tc.kind, err)
		}
		if out.Coerce != tc.wantCoerce {
			t.Fatalf("%s: want coercion %q, got %q", tc.kind, tc.wantCoerce, out.Coerce)
		}
		if out.Widget != tc.wantWidget {
			t.Fatalf("%s: want widget %q, got %q", tc.kind, tc.wantWidget, out.Widget)
		}
	}
}

func TestDefault_CopiesConstraintsAndChoices(t *testing.T) {
	gen := Default{}
	max := 50
	field := document.Field{
		Name:      "status",
		Kind:      document.KindString,
		Required:  true,
		Default:   "draft",
		HelpText:  "publication status",
		MaxLength: &max,
		Choices:   []any{"draft", "live"},
	}

	out, err := gen.Generate(field)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !out.Required || out.Initial != "draft" || out.HelpText != "publication status" {
		t.Fatalf("attributes not copied: %+v", out)
	}
	if out.MaxLength == nil || *out.MaxLength != 50 {
		t.Fatalf("max length not copied: %v", out.MaxLength)
	}
	if len(out.Choices) != 2 || out.Choices[0].Value != "draft" || out.Choices[0].Label != "Draft" {
		t.Fatalf("choices not built: %+v", out.Choices)
	}
	if out.Label != "Status" {
		t.Fatalf("label not derived: %q", out.Label)
	}
}

func TestDefault_EmailPatternFallback(t *testing.T) {
	gen := Default{}
	out, err := gen.Generate(document.Field{Name: "email", Kind: document.KindEmail})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out.Pattern == nil {
		t.Fatalf("expected fallback email pattern")
	}
	if out.Pattern.MatchString("not-an-email") {
		t.Fatalf("pattern accepted invalid email")
	}
	if !out.Pattern.MatchString("a@b.co") {
		t.Fatalf("pattern rejected valid email")
	}
}

func TestDefault_CustomLabeler(t *testing.T) {
	gen := Default{Labeler: func(name string) string { return "X " + name }}
	out, err := gen.Generate(document.Field{Name: "title", Kind: document.KindString})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out.Label != "X title" {
		t.Fatalf("custom labeler ignored: %q", out.Label)
	}
}
