package email

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
)

//go:embed templates/*.md
var templateFS embed.FS

const (
	tplStaffBooking = "staff_booking.md"
	tplGuestBooking = "guest_booking.md"
	tplStaffInvite  = "staff_invite.md"
)

// Templates renders Markdown email bodies to HTML. Bodies are written as
// text/template Markdown so they stay readable in the repo.
type Templates struct {
	tpl *template.Template
	md  goldmark.Markdown
}

func LoadTemplates() (*Templates, error) {
	tpl, err := template.New("email").Funcs(template.FuncMap{
		"md":    escapeMarkdown,
		"price": func(v float64) string { return "$" + domain.FormatPrice(v) },
		"phone": func(p *string) string {
			if p == nil || *p == "" {
				return "Not provided"
			}
			return *p
		},
		"deref": func(v *float64) float64 {
			if v == nil {
				return 0
			}
			return *v
		},
	}).ParseFS(templateFS, "templates/*.md")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	return &Templates{
		tpl: tpl,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}, nil
}

// Render executes the named template and converts the Markdown to HTML.
func (t *Templates) Render(name string, data any) (string, error) {
	var src bytes.Buffer
	if err := t.tpl.ExecuteTemplate(&src, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	var out bytes.Buffer
	if err := t.md.Convert(src.Bytes(), &out); err != nil {
		return "", fmt.Errorf("convert %s: %w", name, err)
	}
	return out.String(), nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", "&lt;",
	">", "&gt;",
	"#", `\#`,
	"|", `\|`,
	"\n", " ",
	"\r", "",
)

// escapeMarkdown keeps guest-supplied text from being read as markup.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
