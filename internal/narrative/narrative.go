// Package narrative renders single-paragraph briefings from aggregate impact
// data, suitable for NGO reports and social posts.
package narrative

import (
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/deforestation-alerts/internal/domain"
)

const daysPerMonth = 30.4

// Summary is the input to the generator: a completed analysis reduced to the
// numbers the text mentions. It is a pure function input; generation has no
// side effects and no lookups.
type Summary struct {
	PatchCount        int
	TotalAreaHectares float64
	WorstSeverity     domain.Severity
	Region            domain.BBox
	Impact            domain.AggregateImpact

	// BestCaseRegrowthMonths, when positive and faster than the active
	// scenario, adds an intensive-restoration comparison sentence.
	BestCaseRegrowthMonths int
}

// Generate builds the briefing paragraph. now anchors the projected recovery
// dates.
func Generate(s Summary, now time.Time) string {
	lon, lat := s.Region.Center()

	parts := []string{
		fmt.Sprintf("Satellite analysis detected %d deforestation %s totaling %s near %s.",
			s.PatchCount, pluralPatch(s.PatchCount), formatArea(s.TotalAreaHectares), formatLocation(lat, lon)),
		fmt.Sprintf("The estimated carbon loss is %s of CO2, with the most severe areas classified as %s severity.",
			formatCarbon(s.Impact.TotalCarbonLossTonnes), s.WorstSeverity),
		fmt.Sprintf("Under the %q scenario, an estimated %s trees would need to be planted, with full canopy recovery projected by %s (~%s).",
			s.Impact.ScenarioLabel, formatCount(s.Impact.TotalTreesToReplant),
			monthsToDate(s.Impact.AvgRegrowthMonths, now), monthsToHuman(s.Impact.AvgRegrowthMonths)),
	}

	if s.BestCaseRegrowthMonths > 0 && s.BestCaseRegrowthMonths < s.Impact.AvgRegrowthMonths {
		pct := int((1 - float64(s.BestCaseRegrowthMonths)/float64(s.Impact.AvgRegrowthMonths)) * 100)
		parts = append(parts, fmt.Sprintf(
			"With intensive restoration, recovery could be accelerated to %s (~%s), a %d%% improvement.",
			monthsToDate(s.BestCaseRegrowthMonths, now), monthsToHuman(s.BestCaseRegrowthMonths), pct))
	}

	return strings.Join(parts, " ")
}

func pluralPatch(n int) string {
	if n == 1 {
		return "patch"
	}
	return "patches"
}

func formatArea(ha float64) string {
	if ha >= 1000 {
		return fmt.Sprintf("%.1fk hectares", ha/1000)
	}
	return fmt.Sprintf("%.0f hectares", ha)
}

func formatCarbon(tonnes float64) string {
	if tonnes >= 1000 {
		return fmt.Sprintf("%.1fk tonnes", tonnes/1000)
	}
	return fmt.Sprintf("%.0f tonnes", tonnes)
}

func formatCount(n int) string {
	// Thousands separators, e.g. 1234567 -> "1,234,567".
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func formatLocation(lat, lon float64) string {
	latDir, lonDir := "N", "E"
	if lat < 0 {
		latDir = "S"
	}
	if lon < 0 {
		lonDir = "W"
	}
	return fmt.Sprintf("%.1f°%s, %.1f°%s", abs(lat), latDir, abs(lon), lonDir)
}

func monthsToDate(months int, now time.Time) string {
	target := now.Add(time.Duration(float64(months) * daysPerMonth * 24 * float64(time.Hour)))
	return target.Format("January 2006")
}

func monthsToHuman(months int) string {
	if months >= 24 {
		return fmt.Sprintf("%.1f years", float64(months)/12)
	}
	return fmt.Sprintf("%d months", months)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
