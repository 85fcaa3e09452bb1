package email

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// TemplateManager holds the parsed alert templates. Each alert has a plain
// text body and an HTML body rendered from the same data.
type TemplateManager struct {
	OutOfZoneText    *texttemplate.Template
	OutOfZoneHTML    *htmltemplate.Template
	FetchFailureText *texttemplate.Template
	FetchFailureHTML *htmltemplate.Template
}

// NewTemplateManager parses all alert templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	tm := &TemplateManager{}
	var err error

	if tm.OutOfZoneText, err = texttemplate.New("outOfZoneText").Parse(outOfZoneTextTemplate); err != nil {
		return nil, err
	}
	if tm.OutOfZoneHTML, err = htmltemplate.New("outOfZoneHTML").Parse(outOfZoneHTMLTemplate); err != nil {
		return nil, err
	}
	if tm.FetchFailureText, err = texttemplate.New("fetchFailureText").Parse(fetchFailureTextTemplate); err != nil {
		return nil, err
	}
	if tm.FetchFailureHTML, err = htmltemplate.New("fetchFailureHTML").Parse(fetchFailureHTMLTemplate); err != nil {
		return nil, err
	}
	return tm, nil
}

// OutOfZoneData holds the fields of an out-of-zone alert.
type OutOfZoneData struct {
	WorkerID  int
	Timestamp string
	Location  string
	Zones     []string
}

// FetchFailureData holds the fields of an endpoint failure alert.
type FetchFailureData struct {
	WorkerID      int
	Timestamp     string
	StatusCode    int
	StatusMessage string
}

// GenerateOutOfZoneEmail renders the out-of-zone alert bodies.
func (tm *TemplateManager) GenerateOutOfZoneEmail(data OutOfZoneData) (plain, html string, err error) {
	return render(tm.OutOfZoneText, tm.OutOfZoneHTML, data)
}

// GenerateFetchFailureEmail renders the endpoint failure alert bodies.
func (tm *TemplateManager) GenerateFetchFailureEmail(data FetchFailureData) (plain, html string, err error) {
	return render(tm.FetchFailureText, tm.FetchFailureHTML, data)
}

func render(text *texttemplate.Template, html *htmltemplate.Template, data any) (string, string, error) {
	var plain, rich bytes.Buffer
	if err := text.Execute(&plain, data); err != nil {
		return "", "", err
	}
	if err := html.Execute(&rich, data); err != nil {
		return "", "", err
	}
	return plain.String(), rich.String(), nil
}

// --- Template Definitions ---

const outOfZoneTextTemplate = `Worker with ID #{{.WorkerID}} was spotted outside of their safety zone.

UTC Time: {{.Timestamp}}
Last location: {{.Location}}
Safety zone: {{if .Zones}}{{range $i, $z := .Zones}}{{if $i}}; {{end}}{{$z}}{{end}}{{else}}none assigned{{end}}
`

const outOfZoneHTMLTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Worker Out of Safety Zone</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Worker #{{.WorkerID}} is outside of their safety zone</h2>
	<p><strong>UTC Time:</strong> {{.Timestamp}}</p>
	<p><strong>Last location:</strong> {{.Location}}</p>
	<p><strong>Safety zone:</strong></p>
	{{if .Zones}}<ul>{{range .Zones}}
		<li><code>{{.}}</code></li>{{end}}
	</ul>{{else}}<p>none assigned</p>{{end}}
</body>
</html>
`

const fetchFailureTextTemplate = `ClinicianStatus endpoint failed to retrieve the geolocation of the worker with ID #{{.WorkerID}}.

UTC Time: {{.Timestamp}}
Response code: {{.StatusCode}}
Response message: {{.StatusMessage}}
`

const fetchFailureHTMLTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Endpoint Failure</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Could not retrieve the location of worker #{{.WorkerID}}</h2>
	<p><strong>UTC Time:</strong> {{.Timestamp}}</p>
	<p><strong>Response code:</strong> {{.StatusCode}}</p>
	<p><strong>Response message:</strong> {{.StatusMessage}}</p>
</body>
</html>
`
