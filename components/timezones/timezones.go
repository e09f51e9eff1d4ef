// Package timezones supplies IANA zone names as select-field choices. A full
// zone list can be loaded from the host's tzdata or any line-oriented
// source; without one the built-in common subset is used.
package timezones

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goliatone/go-docforms/pkg/forms"
)

// LoadZones reads one zone name per line, skipping blanks and # comments,
// and returns the deduplicated names sorted.
func LoadZones(r io.Reader) ([]string, error) {
	if r == nil {
		return nil, fmt.Errorf("timezones: missing reader")
	}

	scanner := bufio.NewScanner(r)
	zones := make([]string, 0, 512)
	seen := map[string]struct{}{}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		zones = append(zones, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.Strings(zones)
	return zones, nil
}

// Choices converts zone names into select-field choices.
func Choices(zones []string) []forms.Choice {
	choices := make([]forms.Choice, 0, len(zones))
	for _, zone := range zones {
		choices = append(choices, forms.Choice{Value: zone, Label: zone})
	}
	return choices
}

// DefaultChoices returns the built-in common zones as choices.
func DefaultChoices() []forms.Choice {
	return Choices(commonZones())
}

// Field builds a ready-to-declare select field for a timezone value. Zones
// defaults to the built-in common subset.
func Field(name string, zones []string) *forms.Field {
	if len(zones) == 0 {
		zones = commonZones()
	}
	return &forms.Field{
		Name:    name,
		Label:   "Timezone",
		Widget:  forms.WidgetSelect,
		Coerce:  forms.CoerceString,
		Choices: Choices(zones),
	}
}

func commonZones() []string {
	return []string{
		"Africa/Cairo",
		"Africa/Johannesburg",
		"Africa/Lagos",
		"America/Argentina/Buenos_Aires",
		"America/Bogota",
		"America/Chicago",
		"America/Denver",
		"America/Los_Angeles",
		"America/Mexico_City",
		"America/New_York",
		"America/Sao_Paulo",
		"America/Toronto",
		"Asia/Dubai",
		"Asia/Hong_Kong",
		"Asia/Jakarta",
		"Asia/Kolkata",
		"Asia/Seoul",
		"Asia/Shanghai",
		"Asia/Singapore",
		"Asia/Tokyo",
		"Australia/Melbourne",
		"Australia/Sydney",
		"Europe/Amsterdam",
		"Europe/Berlin",
		"Europe/Istanbul",
		"Europe/London",
		"Europe/Madrid",
		"Europe/Moscow",
		"Europe/Paris",
		"Europe/Rome",
		"Pacific/Auckland",
		"UTC",
	}
}
