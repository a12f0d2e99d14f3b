package advisor

import (
	"math"
	"sort"

	"github.com/klu-lostfound/internal/match"
)

// Urgency levels
const (
	LevelCritical = "CRITICAL"
	LevelHigh     = "HIGH"
	LevelMedium   = "MEDIUM"
	LevelLow      = "LOW"
)

// Urgency is the triage outcome for one report
type Urgency struct {
	Report      match.Report `json:"report"`
	Score       float64      `json:"urgency_score"`
	Level       string       `json:"urgency_level"`
	HoursPassed float64      `json:"hours_passed"`
}

// Urgency scores how pressing a report is from the kind of item, how
// recently it was reported and whether it pleads for help
func (a *Advisor) Urgency(r match.Report) Urgency {
	text := newTermText(r.ItemName + " " + r.Description)
	hours, dated := a.hoursSince(r)

	var score float64
	level := LevelLow
	for _, rule := range a.cfg.UrgencyRules {
		if text.hasAny(rule.Keywords) {
			score, level = rule.Score, rule.Level
			break
		}
	}

	for _, rb := range a.cfg.RecencyBonuses {
		if dated && hours < rb.WithinHours {
			score += rb.Bonus
			break
		}
	}

	if text.hasAny(a.cfg.EmergencyWords) {
		score += a.cfg.EmergencyBonus
	}

	return Urgency{
		Report:      r,
		Score:       math.Min(100, score),
		Level:       level,
		HoursPassed: math.Round(hours*10) / 10,
	}
}

// UrgentReports returns the reports reaching the urgency threshold, most
// urgent first
func (a *Advisor) UrgentReports(reports []match.Report) []Urgency {
	out := []Urgency{}
	for _, r := range reports {
		u := a.Urgency(r)
		if u.Score >= a.cfg.UrgentThreshold {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// hoursSince returns the non-negative age of a report in hours, or false
// when the report carries no date
func (a *Advisor) hoursSince(r match.Report) (float64, bool) {
	if r.ReportedAt.IsZero() {
		return 0, false
	}
	return math.Max(0, a.clock.Since(r.ReportedAt).Hours()), true
}
