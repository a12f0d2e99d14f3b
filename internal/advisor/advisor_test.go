package advisor

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klu-lostfound/internal/match"
)

func TestCategorize(t *testing.T) {
	a := New(DefaultConfig(), nil)
	tests := []struct {
		item, desc string
		want       string
	}{
		{"iPhone 12", "black with cracked screen", "electronics"},
		{"Headphones", "", "electronics"},
		{"Jacket", "blue denim", "clothing"},
		{"Wallet", "brown leather", "accessories"},
		{"Student ID", "plastic", "documents"},
		{"Scarf", "found near the identification desk", "other"},
		{"Hat", "", "clothing"},
		{"Car keys", "on a ring", "accessories"},
		{"Key fob", "", "keys"},
		{"Textbook", "calculus", "books"},
		{"Tennis racket", "", "sports"},
		{"Umbrella", "green", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Categorize(tt.item, tt.desc))
		})
	}
}

func TestSuggestions(t *testing.T) {
	a := New(DefaultConfig(), nil)

	kinds := func(s []Suggestion) []string {
		out := []string{}
		for _, x := range s {
			out = append(out, x.Kind)
		}
		return out
	}

	assert.Equal(t, []string{"color", "brand", "detail"}, kinds(a.Suggestions("Phone", "lost it")))
	assert.Equal(t, []string{"detail"}, kinds(a.Suggestions("Phone", "black apple phone")))
	assert.Equal(t, []string{"color"}, kinds(a.Suggestions("Umbrella", "folding umbrella with wooden handle")))
	assert.Empty(t, a.Suggestions("Laptop", "silver dell laptop with a red sticker on the lid"))
}

func TestSentiment(t *testing.T) {
	a := New(DefaultConfig(), nil)
	tests := []struct {
		text string
		want string
	}{
		{"Thank you so much, this was amazing!", "positive"},
		{"I am really upset and frustrated", "negative"},
		{"Where can I pick it up?", "neutral"},
		{"great but sad", "neutral"},
		{"", "neutral"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Sentiment(tt.text))
		})
	}
}

func TestUrgency(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	a := New(DefaultConfig(), clockwork.NewFakeClockAt(now))

	tests := []struct {
		name      string
		report    match.Report
		wantScore float64
		wantLevel string
	}{
		{
			name:      "critical and fresh",
			report:    match.Report{ItemName: "Passport", ReportedAt: now.Add(-time.Hour)},
			wantScore: 100, // 95 + 15, capped
			wantLevel: LevelCritical,
		},
		{
			name:      "high a few hours old",
			report:    match.Report{ItemName: "Wallet", ReportedAt: now.Add(-3 * time.Hour)},
			wantScore: 90,
			wantLevel: LevelHigh,
		},
		{
			name:      "medium same day with plea",
			report:    match.Report{ItemName: "Backpack", Description: "please contact me", ReportedAt: now.Add(-10 * time.Hour)},
			wantScore: 85,
			wantLevel: LevelMedium,
		},
		{
			name:      "medium and old",
			report:    match.Report{ItemName: "Watch", ReportedAt: now.Add(-72 * time.Hour)},
			wantScore: 60,
			wantLevel: LevelMedium,
		},
		{
			name:      "ordinary item",
			report:    match.Report{ItemName: "Umbrella", ReportedAt: now.Add(-30 * time.Minute)},
			wantScore: 15,
			wantLevel: LevelLow,
		},
		{
			name:      "id must be a whole word",
			report:    match.Report{ItemName: "Scarf", Description: "identification tag", ReportedAt: now.Add(-48 * time.Hour)},
			wantScore: 0,
			wantLevel: LevelLow,
		},
		{
			name:      "undated report gets no recency bonus",
			report:    match.Report{ItemName: "Laptop"},
			wantScore: 80,
			wantLevel: LevelHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := a.Urgency(tt.report)
			assert.Equal(t, tt.wantScore, u.Score)
			assert.Equal(t, tt.wantLevel, u.Level)
		})
	}
}

func TestUrgencyHoursPassed(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	a := New(DefaultConfig(), clock)
	r := match.Report{ItemName: "Keys", ReportedAt: now.Add(-90 * time.Minute)}

	u := a.Urgency(r)
	assert.Equal(t, 1.5, u.HoursPassed)
	assert.Equal(t, 100.0, u.Score)

	clock.Advance(23 * time.Hour)
	u = a.Urgency(r)
	assert.Equal(t, 24.5, u.HoursPassed)
	assert.Equal(t, 95.0, u.Score)

	future := match.Report{ItemName: "Keys", ReportedAt: clock.Now().Add(time.Hour)}
	assert.Equal(t, 0.0, a.Urgency(future).HoursPassed)
}

func TestUrgentReports(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	a := New(DefaultConfig(), clockwork.NewFakeClockAt(now))
	old := now.Add(-100 * time.Hour)

	reports := []match.Report{
		{ID: 1, ItemName: "Umbrella", ReportedAt: old},
		{ID: 2, ItemName: "Camera", ReportedAt: old},
		{ID: 3, ItemName: "Insulin pen", ReportedAt: old},
		{ID: 4, ItemName: "Phone", ReportedAt: old},
	}

	urgent := a.UrgentReports(reports)
	require.Len(t, urgent, 3)
	assert.Equal(t, int64(3), urgent[0].Report.ID)
	assert.Equal(t, int64(4), urgent[1].Report.ID)
	assert.Equal(t, int64(2), urgent[2].Report.ID)

	assert.NotNil(t, a.UrgentReports(nil))
}
