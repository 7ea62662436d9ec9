package server

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

const indexPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>graviti</title>
<style>
  body { font-family: sans-serif; margin: 1.5rem; }
  #banner { color: #c62828; margin-bottom: 1rem; }
  #controls { margin-bottom: 1rem; }
  #controls label { margin-right: 1rem; }
</style>
</head>
<body>
<h1>graviti</h1>
<div id="banner"></div>
<div id="controls">
  <label><input type="checkbox" id="collapse"> Overview</label>
  <label><input type="checkbox" id="refs"> Line references</label>
</div>
<div id="diagram"></div>
<script type="module">
import mermaid from "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs";
mermaid.initialize({ startOnLoad: false, securityLevel: "loose" });

window.onNodeClick = (id) => {
  console.log("source reference", id);
};

async function draw() {
  const collapse = document.getElementById("collapse").checked;
  const refs = document.getElementById("refs").checked;
  const resp = await fetch("/api/diagram?collapse=" + collapse + "&refs=" + refs);
  if (!resp.ok) {
    document.getElementById("banner").textContent = "no source analyzed yet";
    return;
  }
  const data = await resp.json();
  document.getElementById("banner").textContent = data.warning || "";
  const { svg, bindFunctions } = await mermaid.render("flow", data.diagram);
  const target = document.getElementById("diagram");
  target.innerHTML = svg;
  if (bindFunctions) bindFunctions(target);
}

document.getElementById("collapse").addEventListener("change", draw);
document.getElementById("refs").addEventListener("change", draw);

const ws = new WebSocket((location.protocol === "https:" ? "wss" : "ws") + "://" + location.host + "/ws");
ws.onmessage = () => draw();

draw();
</script>
</body>
</html>
`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Method flows: {{.Title}}</title>
</head>
<body>
{{.Body}}
<script type="module">
import mermaid from "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs";
mermaid.initialize({ startOnLoad: false, securityLevel: "loose" });
await mermaid.run({ querySelector: ".language-mermaid" });
</script>
</body>
</html>
`

// renderReportHTML converts the markdown report produced by
// mermaid.MarkdownReport into a standalone HTML page.
func renderReportHTML(title, markdown string) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithUnsafe(),
		),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("convert report markdown: %w", err)
	}

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	var page bytes.Buffer
	err = tmpl.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body.String())})
	if err != nil {
		return nil, fmt.Errorf("render report page: %w", err)
	}
	return page.Bytes(), nil
}
