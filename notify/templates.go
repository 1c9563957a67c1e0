package notify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// Nội dung viết bằng Markdown; HTML thô trong dữ liệu người dùng bị escape vì không bật WithUnsafe.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// mdSpecial là các ký tự có nghĩa trong Markdown/CommonMark.
const mdSpecial = "\\`*_{}[]()#+-.!<>|~&"

// escapeMarkdown biến dữ liệu người dùng thành văn bản thuần trong Markdown:
// escape ký tự đặc biệt và gộp xuống dòng để không mở block mới.
func escapeMarkdown(v any) string {
	s := fmt.Sprint(v)
	if v == nil {
		s = ""
	}
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(mdSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var templateFuncs = template.FuncMap{"md": escapeMarkdown}

type mailTemplate struct {
	subject string
	body    string
}

var mailTemplates = map[Kind]mailTemplate{
	KindLoginLink: {
		subject: "Room booking admin sign-in",
		body: `Hello,

Use the link below to sign in to the room booking admin console. The link expires in {{.ExpiresIn}} and works once.

[Sign in]({{.Link}})

If you did not request this email you can ignore it.
`,
	},
	KindApplicationReceived: {
		subject: "Booking request received ({{.ApplicationID}})",
		body: `Hello {{md .Name}},

We received your room booking request. An administrator will review it soon.

**Purpose:** {{md .Purpose}}

**Requested slots:**

{{range .Slots}}- {{.Date}} {{.Start}}-{{.End}}, room {{.Room}}
{{end}}
Request id: {{.ApplicationID}}
`,
	},
	KindReviewRequested: {
		subject: "New booking request from {{.Name}}",
		body: `A new booking request is waiting for review.

- **Requester:** {{md .Name}} ({{md .Email}})
- **Organization:** {{md .Organization}}
- **Purpose:** {{md .Purpose}}

{{range .Slots}}- {{.Date}} {{.Start}}-{{.End}}, room {{.Room}}
{{end}}
[Open the admin console]({{.Link}})
`,
	},
	KindApplicationReviewed: {
		subject: "Your booking request was {{.Status}}",
		body: `Hello {{md .Name}},

Your room booking request has been reviewed. Overall result: **{{.Status}}**.

{{range .Slots}}- {{.Date}} {{.Start}}-{{.End}}, room {{.Room}}: {{.Status}}
{{end}}
{{if .Note}}**Note from the reviewer:** {{md .Note}}
{{end}}
Request id: {{.ApplicationID}}
`,
	},
}

type compiled struct {
	subject *template.Template
	body    *template.Template
}

// Renderer dựng Message từ template Markdown.
type Renderer struct {
	templates map[Kind]compiled
}

func NewRenderer() *Renderer {
	r := &Renderer{templates: make(map[Kind]compiled, len(mailTemplates))}
	for kind, t := range mailTemplates {
		r.templates[kind] = compiled{
			subject: template.Must(template.New(string(kind) + ".subject").Option("missingkey=zero").Parse(t.subject)),
			body:    template.Must(template.New(string(kind) + ".body").Funcs(templateFuncs).Option("missingkey=zero").Parse(t.body)),
		}
	}
	return r
}

func (r *Renderer) Render(kind Kind, data map[string]any) (Message, error) {
	t, ok := r.templates[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown notification kind %q", kind)
	}

	var subject, body, html bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return Message{}, fmt.Errorf("render %s subject: %w", kind, err)
	}
	if err := t.body.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("render %s body: %w", kind, err)
	}
	if err := mdRenderer.Convert(body.Bytes(), &html); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", kind, err)
	}

	return Message{
		Subject: subject.String(),
		HTML:    html.String(),
		Text:    body.String(),
	}, nil
}
