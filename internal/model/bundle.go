package model

import (
	"strings"

	"github.com/iliyamo/theater-tickets/internal/apperr"
)

// Bundle is the optional concession add-on attached to a ticket.  The
// zero value means no bundle.
type Bundle string

const (
	BundleNone    Bundle = ""
	BundleBasic   Bundle = "BASIC"
	BundlePremium Bundle = "PREMIUM"
	BundleVIP     Bundle = "VIP"
)

// Bundles lists the purchasable tiers in ascending price order.
var Bundles = []Bundle{BundleBasic, BundlePremium, BundleVIP}

// ParseBundle accepts the tier names case-insensitively.  An empty string
// and "NONE" both map to BundleNone.
func ParseBundle(s string) (Bundle, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE":
		return BundleNone, nil
	case string(BundleBasic):
		return BundleBasic, nil
	case string(BundlePremium):
		return BundlePremium, nil
	case string(BundleVIP):
		return BundleVIP, nil
	}
	return BundleNone, apperr.Wrap(apperr.ErrInvalidArgument, "unknown bundle %q", s)
}

// Display is the upper-case label printed on tickets.
func (b Bundle) Display() string {
	if b == BundleNone {
		return "NO BUNDLE"
	}
	return string(b)
}
