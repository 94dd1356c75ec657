package service

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/noah-isme/gradx-api/internal/dto"
)

// Export formats.
const (
	ExportFormatText  = "text"
	ExportFormatEmail = "email"
	ExportFormatHTML  = "html"
)

var printTemplate = template.Must(template.New("lesson_plan").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Lesson Plan - {{.Topic}}</title>
<style>
body { font-family: 'Merriweather', serif; line-height: 1.6; color: #1f2937; max-width: 800px; margin: 0 auto; padding: 40px; }
.header { text-align: center; border-bottom: 2px solid #333; padding-bottom: 20px; margin-bottom: 40px; }
.header h1 { font-family: 'Open Sans', sans-serif; font-size: 28px; text-transform: uppercase; letter-spacing: 1px; margin: 0 0 10px 0; color: #111; }
.meta-info { font-family: 'Open Sans', sans-serif; font-size: 14px; color: #666; display: flex; justify-content: center; gap: 20px; }
h1, h2, h3 { color: #111; margin-top: 25px; margin-bottom: 10px; font-family: 'Open Sans', sans-serif; }
h1 { font-size: 24px; border-bottom: 1px solid #eee; padding-bottom: 5px; }
h2 { font-size: 20px; font-weight: 700; color: #374151; }
h3 { font-size: 16px; font-weight: 600; text-transform: uppercase; color: #4b5563; }
strong { font-weight: 700; color: #000; }
li { margin-bottom: 5px; margin-left: 20px; }
ol li::marker { font-weight: bold; }
.footer { margin-top: 50px; padding-top: 20px; border-top: 1px solid #eee; text-align: center; font-size: 12px; color: #999; font-family: 'Open Sans', sans-serif; }
@media print { body { padding: 0; } }
</style>
</head>
<body>
<div class="header">
<h1>Lesson Plan</h1>
<div class="meta-info">
<span><strong>Topic:</strong> {{.Topic}}</span>
<span><strong>Grade:</strong> {{.Grade}}</span>
<span><strong>Date:</strong> {{.Date}}</span>
</div>
</div>
<div class="content">
{{.Body}}
</div>
<div class="footer">Generated by GradX</div>
</body>
</html>
`))

// LessonPlanExporter renders a generated plan for copying, emailing or printing.
type LessonPlanExporter interface {
	Export(req dto.LessonPlanExportRequest) (dto.LessonPlanExportResponse, error)
}

type lessonPlanExporter struct {
	validator *validator.Validate
	markdown  goldmark.Markdown
	policy    *bluemonday.Policy
	now       func() time.Time
}

// NewLessonPlanExporter constructs an exporter.
// Single line breaks in a plan are kept, matching how the plan reads on screen.
func NewLessonPlanExporter(validate *validator.Validate) LessonPlanExporter {
	return &lessonPlanExporter{
		validator: validate,
		markdown:  goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps())),
		policy:    bluemonday.UGCPolicy(),
		now:       time.Now,
	}
}

func (e *lessonPlanExporter) Export(req dto.LessonPlanExportRequest) (dto.LessonPlanExportResponse, error) {
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	req.Topic = strings.TrimSpace(req.Topic)
	req.Grade = defaultString(req.Grade, DefaultLessonGrade)
	if err := e.validator.Struct(req); err != nil {
		return dto.LessonPlanExportResponse{}, err
	}

	switch req.Format {
	case ExportFormatText:
		return dto.LessonPlanExportResponse{
			Format:      ExportFormatText,
			ContentType: "text/plain; charset=utf-8",
			Body:        req.Content,
		}, nil
	case ExportFormatEmail:
		return dto.LessonPlanExportResponse{
			Format:      ExportFormatEmail,
			ContentType: "text/uri-list",
			Body:        mailtoLink(req),
		}, nil
	case ExportFormatHTML:
		document, err := e.printable(req)
		if err != nil {
			return dto.LessonPlanExportResponse{}, err
		}
		return dto.LessonPlanExportResponse{
			Format:      ExportFormatHTML,
			ContentType: "text/html; charset=utf-8",
			Body:        document,
		}, nil
	default:
		return dto.LessonPlanExportResponse{}, fmt.Errorf("%w: %q", ErrUnknownExportFormat, req.Format)
	}
}

func (e *lessonPlanExporter) printable(req dto.LessonPlanExportRequest) (string, error) {
	var rendered bytes.Buffer
	if err := e.markdown.Convert([]byte(req.Content), &rendered); err != nil {
		return "", fmt.Errorf("render lesson plan markdown: %w", err)
	}
	body := e.policy.SanitizeBytes(rendered.Bytes())

	var buf bytes.Buffer
	err := printTemplate.Execute(&buf, struct {
		Topic string
		Grade string
		Date  string
		Body  template.HTML
	}{
		Topic: req.Topic,
		Grade: req.Grade,
		Date:  e.now().Format("2006-01-02"),
		Body:  template.HTML(body),
	})
	if err != nil {
		return "", fmt.Errorf("render lesson plan: %w", err)
	}
	return buf.String(), nil
}

func mailtoLink(req dto.LessonPlanExportRequest) string {
	subject := fmt.Sprintf("Lesson Plan: %s", req.Topic)
	body := fmt.Sprintf("Topic: %s\nGrade: %s\n--------------------------------\n\n%s", req.Topic, req.Grade, req.Content)
	body = strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n")
	return "mailto:?subject=" + uriComponent(subject) + "&body=" + uriComponent(body)
}

func uriComponent(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
