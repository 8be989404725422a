package plotpage

import (
	"bytes"
	"fmt"
	"html/template"
)

type pageData struct {
	Title       string
	Description string
	ProjectName string
	Theme       ThemeConfig
	Content     template.HTML
}

type sectionData struct {
	Title    string
	Subtitle string
	Chart    template.HTML
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} — {{.ProjectName}}</title>
<style>
:root {
  --bg: {{.Theme.Background}};
  --surface: {{.Theme.Surface}};
  --text: {{.Theme.Text}};
  --muted: {{.Theme.Muted}};
  --accent: {{.Theme.Accent}};
}
* { box-sizing: border-box; }
body {
  margin: 0;
  background: var(--bg);
  color: var(--text);
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
}
header {
  padding: 24px 32px 8px;
  border-bottom: 1px solid var(--surface);
}
header h1 { margin: 0 0 4px; font-size: 22px; }
header h1 span { color: var(--accent); }
header p { margin: 0; color: var(--muted); font-size: 14px; }
main { max-width: 1280px; margin: 0 auto; padding: 16px 32px 48px; }
section.view {
  background: var(--surface);
  border-radius: 8px;
  padding: 16px 20px;
  margin-top: 24px;
}
section.view h2 { margin: 0 0 2px; font-size: 17px; }
section.view p.subtitle { margin: 0 0 12px; color: var(--muted); font-size: 13px; }
.echart-box .item { margin: 0 auto; }
</style>
</head>
<body>
<header>
  <h1><span>{{.ProjectName}}</span> · {{.Title}}</h1>
  <p>{{.Description}}</p>
</header>
<main>
{{.Content}}
</main>
</body>
</html>
`

const sectionTemplate = `<section class="view">
<h2>{{.Title}}</h2>
{{if .Subtitle}}<p class="subtitle">{{.Subtitle}}</p>{{end}}
{{.Chart}}
</section>
`

var templates = template.Must(template.Must(
	template.New("page").Parse(pageTemplate)).New("section").Parse(sectionTemplate))

func renderTemplate(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer

	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}

	return template.HTML(buf.String()), nil //nolint:gosec // template output.
}
