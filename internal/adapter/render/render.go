// Package render prints advisory answers, tool output and history to a
// terminal, as styled markdown or as plain text.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ruvenwang/mindponics/internal/adapter/history"
	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/multiagent"
)

// DefaultWidth is the word-wrap width for markdown output.
const DefaultWidth = 100

// Renderer writes CLI output. The zero value is not usable; call New.
type Renderer struct {
	out     io.Writer
	plain   bool
	width   int
	symbols Symbols
	md      *glamour.TermRenderer
}

// New creates a Renderer writing to out. plain disables markdown and colour.
func New(out io.Writer, plain bool) *Renderer {
	return &Renderer{out: out, plain: plain, width: DefaultWidth, symbols: DetectSymbols()}
}

// Markdown renders text as terminal markdown, or returns it unchanged in
// plain mode or when the renderer cannot be built.
func (r *Renderer) Markdown(text string) string {
	if r.plain {
		return text
	}
	if r.md == nil {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(r.width),
		)
		if err != nil {
			return text
		}
		r.md = md
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return out
}

// Answer prints the merged answer followed by a one-line footer naming the
// consulted and unavailable specialists.
func (r *Renderer) Answer(a *multiagent.Answer) {
	fmt.Fprintln(r.out, strings.TrimRight(r.Markdown(a.Text), "\n"))
	fmt.Fprintln(r.out)

	footer := fmt.Sprintf("consulted: %s  %s", joinSpecialties(a.Specialties), a.Duration.Round(time.Millisecond))
	if r.plain {
		fmt.Fprintln(r.out, footer)
	} else {
		fmt.Fprintln(r.out, textMuted.Render(footer))
	}
	if un := a.Unavailable(); len(un) > 0 {
		r.warn("unavailable: " + joinSpecialties(un))
	}
}

// Tools lists tool names with their descriptions.
func (r *Renderer) Tools(schemas []domain.ToolSchema) {
	width := 0
	for _, s := range schemas {
		width = max(width, len(s.Name))
	}
	for _, s := range schemas {
		name := fmt.Sprintf("%-*s", width, s.Name)
		if !r.plain {
			name = textInfo.Render(name)
		}
		fmt.Fprintf(r.out, "  %s  %s\n", name, s.Description)
	}
}

// ToolResult prints a tool's output. Errors are flagged.
func (r *Renderer) ToolResult(res *domain.ToolResult) {
	if res.IsError {
		r.fail(res.Content)
		return
	}
	fmt.Fprintln(r.out, res.Content)
}

// History prints one block per stored advisory, newest first.
func (r *Renderer) History(entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(r.out, "No advisories recorded yet.")
		return
	}
	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(r.out)
		}
		header := fmt.Sprintf("%s  %s", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.RequestID)
		query := fmt.Sprintf("Q: %s", e.Query)
		if r.plain {
			fmt.Fprintln(r.out, header)
			fmt.Fprintln(r.out, query)
		} else {
			fmt.Fprintln(r.out, textMuted.Render(header))
			fmt.Fprintln(r.out, title.Render(query))
		}
		fmt.Fprintf(r.out, "%s %s (%s)\n", r.symbols.Bullet, joinSpecialties(e.Specialties), e.Duration.Round(time.Millisecond))
		if len(e.Unavailable) > 0 {
			r.warn("unavailable: " + joinSpecialties(e.Unavailable))
		}
		fmt.Fprintln(r.out, firstLine(e.Answer))
	}
}

// Title prints a section heading.
func (r *Renderer) Title(s string) {
	if r.plain {
		fmt.Fprintln(r.out, s)
		fmt.Fprintln(r.out, strings.Repeat("=", len(s)))
		return
	}
	fmt.Fprintln(r.out, title.Render(s))
}

// Check prints one health-check line with an optional fix hint.
func (r *Renderer) Check(status, name, message, fix string) {
	var label string
	switch status {
	case "PASS":
		label = r.style(textSuccess, "["+status+"]", r.symbols.Success)
	case "WARN":
		label = r.style(textWarning, "["+status+"]", r.symbols.Warning)
	case "FAIL":
		label = r.style(textError, "["+status+"]", r.symbols.Error)
	default:
		label = "[????]"
	}
	fmt.Fprintf(r.out, "  %s %s: %s\n", label, name, message)
	if fix != "" {
		fmt.Fprintf(r.out, "      Fix: %s\n", fix)
	}
}

// Println writes a plain line.
func (r *Renderer) Println(a ...any) {
	fmt.Fprintln(r.out, a...)
}

func (r *Renderer) warn(s string) {
	if r.plain {
		fmt.Fprintln(r.out, "warning: "+s)
		return
	}
	fmt.Fprintln(r.out, textWarning.Render(r.symbols.Warning+" "+s))
}

func (r *Renderer) fail(s string) {
	if r.plain {
		fmt.Fprintln(r.out, "error: "+s)
		return
	}
	fmt.Fprintln(r.out, textError.Render(r.symbols.Error+" "+s))
}

func (r *Renderer) style(st lipgloss.Style, plain, glyph string) string {
	if r.plain {
		return plain
	}
	return st.Render(glyph + " " + plain)
}

func joinSpecialties(sps []domain.Specialty) string {
	if len(sps) == 0 {
		return "none"
	}
	names := make([]string, len(sps))
	for i, sp := range sps {
		names[i] = string(sp)
	}
	return strings.Join(names, ", ")
}

// firstLine returns the first prose line of an answer, skipping the summary
// header and markdown headings.
func firstLine(s string) string {
	s = strings.TrimPrefix(s, multiagent.SummaryHeader)
	for line := range strings.Lines(s) {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			return line
		}
	}
	return ""
}
