// Package render formats execution output and artifacts for the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/datalenz/internal/types"
)

var (
	codeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 1)
	stderrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
)

// Renderer converts execution responses into styled terminal text.
type Renderer struct {
	markdown *glamour.TermRenderer
	width    int
}

// New creates a Renderer wrapping output at the given width.
func New(width int) (*Renderer, error) {
	if width < 20 {
		width = 80
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return &Renderer{markdown: md, width: width}, nil
}

// Plan formats an execution plan: steps, complexity, required libraries.
func (r *Renderer) Plan(plan *types.ExecutionPlan) string {
	if plan == nil || len(plan.Steps) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render("Plan"))
	b.WriteString("\n")
	for i, step := range plan.Steps {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
	}
	if plan.EstimatedComplexity != "" {
		fmt.Fprintf(&b, "  complexity: %s\n", plan.EstimatedComplexity)
	}
	if len(plan.RequiredLibraries) > 0 {
		fmt.Fprintf(&b, "  libraries: %s\n", strings.Join(plan.RequiredLibraries, ", "))
	}
	return b.String()
}

// Result formats generated code and captured output of one execution.
func (r *Renderer) Result(result *types.ExecutionResult) string {
	var b strings.Builder
	if result.Code != "" {
		b.WriteString(labelStyle.Render("Code"))
		b.WriteString("\n")
		b.WriteString(codeStyle.Render(result.Code))
		b.WriteString("\n")
	}
	if result.Stdout != "" {
		b.WriteString(labelStyle.Render("Output"))
		b.WriteString("\n")
		b.WriteString(r.Markdown(result.Stdout))
		b.WriteString("\n")
	}
	if result.Stderr != "" {
		b.WriteString(labelStyle.Render("Errors"))
		b.WriteString("\n")
		b.WriteString(stderrStyle.Render(result.Stderr))
		b.WriteString("\n")
	}
	return b.String()
}

// Markdown renders markdown text for the terminal, returning the input
// unchanged when rendering fails.
func (r *Renderer) Markdown(text string) string {
	out, err := r.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// Artifact formats one artifact for inline display. Charts are referenced
// by their saved path (the terminal cannot draw them); tables arriving as
// HTML are converted to markdown first.
func (r *Renderer) Artifact(artifact *types.Artifact, savedPath string) string {
	switch artifact.Type {
	case types.ArtifactChart:
		if savedPath != "" {
			return fmt.Sprintf("[chart] saved to %s", savedPath)
		}
		return "[chart]"
	case types.ArtifactTable:
		return r.table(artifact.Content)
	case types.ArtifactCode:
		return codeStyle.Render(stringContent(artifact.Content))
	case types.ArtifactError:
		return stderrStyle.Render(stringContent(artifact.Content))
	default:
		return stringContent(artifact.Content)
	}
}

// table renders a table artifact. HTML payloads (pandas to_html output)
// are converted to markdown; JSON payloads are pretty-printed.
func (r *Renderer) table(content json.RawMessage) string {
	text := stringContent(content)
	if strings.Contains(text, "<table") {
		if md, err := htmltomarkdown.ConvertString(text); err == nil {
			return r.Markdown(md)
		}
	}

	var pretty map[string]any
	if err := json.Unmarshal(content, &pretty); err == nil {
		if out, err := json.MarshalIndent(pretty, "", "  "); err == nil {
			return string(out)
		}
	}
	return text
}

// stringContent unwraps a JSON string value, falling back to the raw text.
func stringContent(content json.RawMessage) string {
	var text string
	if err := json.Unmarshal(content, &text); err == nil {
		return text
	}
	return string(content)
}

// RelativeTime renders a timestamp the way a session listing reads best:
// recent activity as an age, older activity as a date.
func RelativeTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
