package reporter

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"go-jobscout/internal/models"

	"github.com/playwright-community/playwright-go"
)

const pdfTemplate = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Job report {{.RunID}}</title>
<style>
body { font-family: Arial, sans-serif; font-size: 11px; margin: 24px; }
h1 { font-size: 18px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 6px; text-align: left; vertical-align: top; }
th { background: #f0f0f0; }
.good { color: #1a7f37; } .moderate { color: #9a6700; } .poor { color: #cf222e; }
</style></head>
<body>
<h1>Job report {{.StartedAt.Format "2006-01-02 15:04"}}</h1>
<p>{{len .Postings}} postings</p>
<table>
<tr><th>Site</th><th>Search</th><th>Title</th><th>Company</th><th>Location</th><th>LLM</th></tr>
{{range .Postings}}<tr>
<td>{{.Site}}</td><td>{{.SearchTitle}}</td><td><a href="{{.URL}}">{{.Title}}</a></td>
<td>{{.Company}}</td><td>{{.Location}}</td><td class="{{.Comment}}">{{comment .Comment}}</td>
</tr>
{{end}}</table>
</body></html>`

// Renderer turns an HTML document into PDF bytes.
type Renderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// PDFSink renders the postings table through html/template and prints it with a headless browser.
type PDFSink struct {
	dir      string
	tmpl     *template.Template
	renderer Renderer
	log      *slog.Logger
}

func NewPDFSink(dir string, renderer Renderer, logger *slog.Logger) *PDFSink {
	if logger == nil {
		logger = slog.Default()
	}
	if renderer == nil {
		renderer = PlaywrightRenderer{}
	}
	tmpl := template.Must(template.New("report").Funcs(template.FuncMap{
		"comment": commentOrNA,
	}).Parse(pdfTemplate))
	return &PDFSink{dir: dir, tmpl: tmpl, renderer: renderer, log: logger.With("component", "reporter", "format", "pdf")}
}

// RenderHTML executes the report template.
func (s *PDFSink) RenderHTML(res models.RunResult) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, res); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func (s *PDFSink) Write(ctx context.Context, res models.RunResult) error {
	if res.Len() == 0 {
		return nil
	}
	html, err := s.RenderHTML(res)
	if err != nil {
		return err
	}
	data, err := s.renderer.RenderPDF(ctx, html)
	if err != nil {
		return err
	}
	f, path, err := createReport(s.dir, res, "pdf")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close pdf: %w", err)
	}
	s.log.Info("📄 report written", "path", path, "rows", res.Len())
	return nil
}

// PlaywrightRenderer prints HTML with a throwaway headless Chromium.
type PlaywrightRenderer struct{}

func (PlaywrightRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("could not launch chromium browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create new page: %w", err)
	}
	defer page.Close()

	if err := page.SetContent(html, playwright.PageSetContentOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, fmt.Errorf("could not set page content: %w", err)
	}
	data, err := page.PDF(playwright.PagePdfOptions{
		Format:          playwright.String("A4"),
		Landscape:       playwright.Bool(true),
		PrintBackground: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("could not generate PDF: %w", err)
	}
	return data, nil
}
