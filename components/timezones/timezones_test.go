package timezones

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-docforms/pkg/forms"
)

func TestLoadZones(t *testing.T) {
	input := strings.Join([]string{
		"# tzdata extract",
		"Europe/Berlin",
		"",
		"  America/New_York  ",
		"Europe/Berlin",
		"Asia/Tokyo",
	}, "\n")

	zones, err := LoadZones(strings.NewReader(input))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := []string{"America/New_York", "Asia/Tokyo", "Europe/Berlin"}
	if diff := cmp.Diff(want, zones); diff != "" {
		t.Fatalf("zones mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadZones_NilReader(t *testing.T) {
	if _, err := LoadZones(nil); err == nil {
		t.Fatalf("nil reader must fail")
	}
}

func TestField(t *testing.T) {
	fld := Field("timezone", []string{"UTC", "Europe/Berlin"})
	if fld.Widget != forms.WidgetSelect {
		t.Fatalf("want select widget, got %q", fld.Widget)
	}
	if len(fld.Choices) != 2 {
		t.Fatalf("unexpected choice count %d", len(fld.Choices))
	}
	if fld.Choices[1].Value != "Europe/Berlin" {
		t.Fatalf("choices must keep the given order: %v", fld.Choices)
	}

	fallback := Field("timezone", nil)
	if len(fallback.Choices) == 0 {
		t.Fatalf("empty zone list must fall back to the built-in set")
	}
}
