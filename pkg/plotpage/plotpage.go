// Package plotpage assembles go-echarts charts into a standalone dashboard
// HTML page.
package plotpage

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
)

const styleTagLen = 8 // len("</style>")

// Style defines chart dimensions.
type Style struct {
	Width  string
	Height string
}

// DefaultStyle returns the default chart style.
func DefaultStyle() Style {
	return Style{Width: "100%", Height: "500px"}
}

// Renderable is the interface for chart components.
type Renderable interface {
	Render(w io.Writer) error
}

// Section is one chart block within a page.
type Section struct {
	Title    string
	Subtitle string
	Chart    Renderable
}

// Page is a complete dashboard page.
type Page struct {
	Title       string
	Description string
	ProjectName string
	Theme       Theme
	Sections    []Section
}

// NewPage creates a dashboard page with the default project branding.
func NewPage(title, description string) *Page {
	return &Page{
		Title:       title,
		Description: description,
		ProjectName: "Reposcope",
		Theme:       ThemeDark,
	}
}

// WithTheme sets the page theme.
func (p *Page) WithTheme(theme Theme) *Page {
	p.Theme = theme

	return p
}

// Add appends sections to the page.
func (p *Page) Add(sections ...Section) {
	p.Sections = append(p.Sections, sections...)
}

// Render writes the page as HTML.
func (p *Page) Render(w io.Writer) error {
	themeConfig := GetThemeConfig(p.Theme)

	var sections bytes.Buffer

	for _, section := range p.Sections {
		data := sectionData{
			Title:    section.Title,
			Subtitle: section.Subtitle,
			Chart:    template.HTML(renderChart(section.Chart)), //nolint:gosec // echarts output.
		}

		html, err := renderTemplate("section", data)
		if err != nil {
			return fmt.Errorf("render section %q: %w", section.Title, err)
		}

		sections.WriteString(string(html))
	}

	html, err := renderTemplate("page", pageData{
		Title:       p.Title,
		Description: p.Description,
		ProjectName: p.ProjectName,
		Theme:       themeConfig,
		Content:     template.HTML(sections.String()), //nolint:gosec // assembled above.
	})
	if err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	if _, err := w.Write([]byte(html)); err != nil {
		return fmt.Errorf("write page: %w", err)
	}

	return nil
}

// renderChart renders an echarts chart and extracts the embeddable div and
// script from its standalone HTML output.
func renderChart(chart Renderable) string {
	if chart == nil {
		return ""
	}

	var buf bytes.Buffer

	if err := chart.Render(&buf); err != nil {
		return ""
	}

	return extractChartContent(buf.String())
}

func extractChartContent(html string) string {
	trimmed := strings.TrimSpace(html)
	if !strings.HasPrefix(trimmed, "<!DOCTYPE") && !strings.HasPrefix(trimmed, "<html") {
		return html
	}

	start := strings.Index(html, `<div class="container">`)
	if start == -1 {
		return html
	}

	end := strings.Index(html, `</body>`)
	if end == -1 {
		return html
	}

	content := html[start:end]
	content = strings.ReplaceAll(content, `class="container"`, `class="echart-box"`)

	return removeStyleTags(content)
}

func removeStyleTags(content string) string {
	for {
		i := strings.Index(content, `<style>`)
		if i == -1 {
			return content
		}

		j := strings.Index(content[i:], `</style>`)
		if j == -1 {
			return content
		}

		content = content[:i] + content[i+j+styleTagLen:]
	}
}
