package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/soil-irrigator/internal/logic"
	"github.com/sweeney/soil-irrigator/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"rain": func(mm float64) string {
		if mm < 0 {
			return "unknown"
		}
		return fmt.Sprintf("%.2f mm", mm)
	},
	"timer": func(t logic.Timer) string {
		at, ok := t.Get()
		if !ok {
			return "never"
		}
		return at.UTC().Format("2006-01-02T15:04:05Z")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="30">
<title>Soil Irrigator</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.warn { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Soil Irrigator</h1>

<h2>Pump</h2>
<table>
<tr><th>State</th><td id="pump-state" class="{{if .Pump.State.On}}on{{else}}off{{end}}">{{if .Pump.State.On}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Cycle cap</th><td>{{.Pump.CycleCap}}</td></tr>
<tr><th>Started</th><td>{{timer .Pump.StartedAt}}</td></tr>
<tr><th>Last stop</th><td>{{timer .Pump.LastStop}}</td></tr>
<tr><th>Saturated</th><td>{{if .Pump.Saturated}}yes{{else}}no{{end}}</td></tr>
<tr><th>Runtime since saturation</th><td>{{.Pump.Runtime}}</td></tr>
</table>

<h2>Readings</h2>
<table>
{{if .Ready}}<tr><th>Soil moisture</th><td>{{.Reading.Moisture}}% (raw {{.Reading.Raw}})</td></tr>
<tr><th>Air</th><td>{{printf "%.1f" .Reading.TemperatureC}}°C, {{printf "%.0f" .Reading.HumidityPct}}% RH</td></tr>
<tr><th>Rain forecast</th><td>{{rain .Reading.RainMM}}</td></tr>
<tr><th>Recommendation</th><td>{{printf "%.0f" .Estimate}}s</td></tr>
{{else}}<tr><th>Soil moisture</th><td class="warn">no reading yet</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Pump ON</th><td>{{.Pump.Counts.PumpOn}}</td></tr>
<tr><th>Pump OFF</th><td>{{.Pump.Counts.PumpOff}}</td></tr>
<tr><th>Saturation stops</th><td>{{.Pump.Counts.Saturation}}</td></tr>
<tr><th>Time cap stops</th><td>{{.Pump.Counts.TimeCap}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Profile</th><td>{{.Config.Profile}}</td></tr>
<tr><th>Boot</th><td>{{.BootID}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Last iteration</th><td{{if .LastError}} class="warn"{{end}}>{{.LastOutcome}}{{if .LastError}}: {{.LastError}}{{end}}</td></tr>
<tr><th>Consecutive failures</th><td>{{.ConsecutiveFailures}} / {{.Config.FailThreshold}}</td></tr>
<tr><th>Restarts</th><td>{{.Restarts}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}} ({{.Config.Broker}})</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
