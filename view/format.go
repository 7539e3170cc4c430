// Package view turns state snapshots into the JSON view models the
// storefront pages render. Nothing here touches the gateway.
package view

import (
	"fmt"
	"strings"
	"time"
)

// Manila is the storefront's display zone.
var Manila = time.FixedZone("PHT", 8*60*60)

const timeLayout = "Jan 2, 3:04 PM"

func PriceLabel(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "₱" + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

func TimeLabel(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(Manila).Format(timeLayout)
}
