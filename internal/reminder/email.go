package reminder

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/dukerupert/tandem/internal/model"
)

var emailTmpl = template.Must(template.New("email").Funcs(template.FuncMap{
	"when": func(t time.Time, loc *time.Location) string { return t.In(loc).Format(timeLayout) },
}).Parse(`<h1>{{.Notice.Title}}</h1>
<p>Hi {{.Name}},</p>
<p>{{.Notice.Message}}</p>
{{- with .Notice.Items}}
<ul>{{range .}}<li>{{.}}</li>{{end}}</ul>
{{- end}}
{{- with .Notice.Summary}}
{{- if .Tasks}}
<h2>Tasks</h2>
<ul>{{range .Tasks}}<li>{{.Title}} ({{when .DueAt $.Loc}})</li>{{end}}</ul>
{{- if gt .TaskCount (len .Tasks)}}<p>and {{.MoreTasks}} more</p>{{end}}
{{- end}}
{{- if .Events}}
<h2>Events</h2>
<ul>{{range .Events}}<li>{{.Title}} ({{when .StartTime $.Loc}})</li>{{end}}</ul>
{{- if gt .EventCount (len .Events)}}<p>and {{.MoreEvents}} more</p>{{end}}
{{- end}}
{{- end}}
<p><a href="{{.URL}}">Open in Tandem</a></p>
`))

type emailData struct {
	Name   string
	Notice Notice
	URL    string
	Loc    *time.Location
}

// renderEmail builds the HTML body of a notice for one recipient.
func renderEmail(to model.UserRef, n Notice, baseURL string, loc *time.Location) (string, error) {
	name := to.Name
	if name == "" {
		name = to.Email
	}

	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, emailData{
		Name:   name,
		Notice: n,
		URL:    baseURL + n.Link,
		Loc:    loc,
	})
	if err != nil {
		return "", fmt.Errorf("render %s email: %w", n.Category, err)
	}
	return buf.String(), nil
}
