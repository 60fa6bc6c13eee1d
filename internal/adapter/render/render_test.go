package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ruvenwang/mindponics/internal/adapter/history"
	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/multiagent"
)

func TestAnswer_Plain(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, true)

	r.Answer(&multiagent.Answer{
		Text:        "## Water Quality\npH is fine.",
		Specialties: []domain.Specialty{domain.SpecialtyWater, domain.SpecialtyBacteria},
		Reports: []*domain.Report{
			{Specialty: domain.SpecialtyWater},
			{Specialty: domain.SpecialtyBacteria, Unavailable: true},
		},
		Duration: 1234 * time.Microsecond,
	})

	out := buf.String()
	assert.Contains(t, out, "## Water Quality\npH is fine.\n")
	assert.Contains(t, out, "consulted: water, bacteria  1ms")
	assert.Contains(t, out, "warning: unavailable: bacteria")
}

func TestAnswer_Styled(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)
	r.Answer(&multiagent.Answer{Text: "# Heading\n\nBody text."})
	assert.Contains(t, buf.String(), "Body text.")
	assert.Contains(t, buf.String(), "consulted: none")
}

func TestTools(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).Tools([]domain.ToolSchema{
		{Name: "water_quality", Description: "Check water"},
		{Name: "delegate", Description: "Ask one specialist"},
	})
	assert.Equal(t, "  water_quality  Check water\n  delegate       Ask one specialist\n", buf.String())
}

func TestToolResult(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, true)
	r.ToolResult(&domain.ToolResult{Content: `{"ok":true}`})
	r.ToolResult(&domain.ToolResult{Content: "bad params", IsError: true})
	assert.Equal(t, "{\"ok\":true}\nerror: bad params\n", buf.String())
}

func TestHistory(t *testing.T) {
	t.Setenv("MINDPONICS_ASCII_SYMBOLS", "1")
	var buf bytes.Buffer
	r := New(&buf, true)
	r.History(nil)
	assert.Equal(t, "No advisories recorded yet.\n", buf.String())

	buf.Reset()
	r.History([]history.Entry{{
		RequestID:   "req-1",
		Query:       "feed my tilapia",
		Specialties: []domain.Specialty{domain.SpecialtyFish},
		Unavailable: []domain.Specialty{domain.SpecialtyFish},
		Answer:      multiagent.SummaryHeader + "## Fish Health\n\nFeed 400 g/day.",
		Duration:    2 * time.Second,
		CreatedAt:   time.Now(),
	}})
	out := buf.String()
	assert.Contains(t, out, "req-1")
	assert.Contains(t, out, "Q: feed my tilapia")
	assert.Contains(t, out, "* fish (2s)")
	assert.Contains(t, out, "warning: unavailable: fish")
	assert.Contains(t, out, "Feed 400 g/day.")
	assert.NotContains(t, out, "comprehensive summary")
}

func TestCheck_Plain(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, true)
	r.Check("WARN", "History", "disabled", "set history.enabled")
	assert.Equal(t, "  [WARN] History: disabled\n      Fix: set history.enabled\n", buf.String())
}

func TestDetectSymbols(t *testing.T) {
	t.Setenv("MINDPONICS_ASCII_SYMBOLS", "1")
	assert.Equal(t, asciiSymbols, DetectSymbols())

	t.Setenv("MINDPONICS_ASCII_SYMBOLS", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_CTYPE", "")
	t.Setenv("LANG", "C")
	assert.Equal(t, asciiSymbols, DetectSymbols())

	t.Setenv("LANG", "en_US.UTF-8")
	assert.Equal(t, unicodeSymbols, DetectSymbols())
}
