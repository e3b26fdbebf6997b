package http

import (
	"encoding/base64"
	"html/template"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zerotwo/solar-watcher/services/watcher/internal/models"
)

const unknown = "??"

var pageTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="60">
<title>Solar</title>
<style>
body { font-family: Arial, sans-serif; background-color: #f5f5f5; margin: 0; padding: 20px; }
h1 { color: #333; text-decoration-line: underline; }
.current { font-size: 30px; margin-bottom: 20px; }
.stats { margin-bottom: 20px; }
.stats p { margin: 0; font-size: 18px; }
.technical { font-size: 8px; color: #333; }
</style>
</head>
<body>
<h1>Solar</h1>
<div class="current">
<p>Now: <strong>{{.Watt}} W</strong> ({{.WattTime}})</p>
</div>
<div class="stats">
<p>Total: <strong>{{.TotalKWh}} kWh</strong></p>
<p>Profit: <strong>{{.Profit}} &euro;</strong></p>
<p>Max: <strong>{{.MaxWatt}} W</strong> ({{.MaxTime}})</p>
</div>
{{range .Charts}}<img alt="{{.Title}}" src="{{.Src}}"/>
{{end}}
{{if .Variables}}<table class="technical">
{{range .Variables}}<tr><td>{{.Name}}</td><td>{{.Value}}</td></tr>
{{end}}</table>{{end}}
</body>
</html>
`))

type pageChart struct {
	Title string
	Src   template.URL
}

type pageVariable struct {
	Name  string
	Value string
}

type pageData struct {
	Watt      string
	WattTime  string
	TotalKWh  string
	Profit    string
	MaxWatt   string
	MaxTime   string
	Charts    []pageChart
	Variables []pageVariable
}

// GET /
func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index", s.pageData(s.loop.Snapshot()))
}

func (s *Server) pageData(snap *models.Snapshot) pageData {
	d := pageData{
		Watt:     unknown,
		WattTime: unknown,
		TotalKWh: unknown,
		Profit:   strconv.FormatFloat(snap.Profit, 'f', 2, 64),
		MaxWatt:  unknown,
		MaxTime:  unknown,
	}
	if snap.Latest != nil {
		d.Watt = strconv.Itoa(snap.Latest.Watt)
		d.WattTime = snap.Latest.Timestamp.In(s.location).Format("15:04:05")
	}
	if snap.Maximum != nil {
		d.MaxWatt = strconv.Itoa(snap.Maximum.Watt)
		d.MaxTime = snap.Maximum.Timestamp.In(s.location).Format("Mon 02.01.2006 15:04:05")
	}
	if snap.TotalKWh != nil {
		d.TotalKWh = strconv.FormatFloat(*snap.TotalKWh, 'f', 1, 64)
	}

	for _, ch := range snap.Charts {
		d.Charts = append(d.Charts, pageChart{
			Title: ch.Series.Title,
			Src:   template.URL("data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(ch.SVG)),
		})
	}

	names := make([]string, 0, len(snap.Variables))
	for name := range snap.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d.Variables = append(d.Variables, pageVariable{Name: name, Value: snap.Variables[name]})
	}
	return d
}
