// Package tier classifies waitlist point totals into priority bands.
package tier

import (
	"fmt"
	"strings"

	"github.com/tamweel-auto/waitlist/internal/i18n"
)

// Tier is an ordered priority band. Higher values rank ahead.
type Tier int

const (
	Standard Tier = iota
	FastTrack
	EarlyAccess
	VIPAccess
)

// Lower bounds of each band, inclusive. The remote get_tier_for_points
// procedure must use the same values.
const (
	FastTrackMin   = 250
	EarlyAccessMin = 400
	VIPAccessMin   = 600
)

// For maps a point total to its tier. Bands are closed-open and cover every
// integer; totals below zero fall into Standard.
func For(points int) Tier {
	switch {
	case points >= VIPAccessMin:
		return VIPAccess
	case points >= EarlyAccessMin:
		return EarlyAccess
	case points >= FastTrackMin:
		return FastTrack
	default:
		return Standard
	}
}

// String returns the canonical English label.
func (t Tier) String() string {
	switch t {
	case VIPAccess:
		return "VIP Access"
	case EarlyAccess:
		return "Early Access"
	case FastTrack:
		return "Fast Track"
	case Standard:
		return "Standard"
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// Key returns the translation key for the tier label.
func (t Tier) Key() i18n.Key {
	switch t {
	case VIPAccess:
		return i18n.TierVIPAccess
	case EarlyAccess:
		return i18n.TierEarlyAccess
	case FastTrack:
		return i18n.TierFastTrack
	default:
		return i18n.TierStandard
	}
}

// Parse accepts the canonical labels as well as snake_case forms such as
// "vip_access", which is how some callers spell them.
func Parse(label string) (Tier, bool) {
	norm := strings.ToLower(strings.TrimSpace(label))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	switch norm {
	case "vip access", "vip":
		return VIPAccess, true
	case "early access":
		return EarlyAccess, true
	case "fast track":
		return FastTrack, true
	case "standard":
		return Standard, true
	}
	return Standard, false
}

// MarshalText encodes the tier as its label.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a label produced by MarshalText.
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, ok := Parse(string(b))
	if !ok {
		return fmt.Errorf("unknown tier %q", string(b))
	}
	*t = parsed
	return nil
}
