package web

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"time"

	"github.com/sweeney/manual-control/internal/status"
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
	"axis": func(v float64) string {
		if math.IsNaN(v) {
			return "—"
		}
		return fmt.Sprintf("%+.3f", v)
	},
	"slot": func(n int) string {
		if n < 0 {
			return "none"
		}
		return fmt.Sprintf("%d", n)
	},
	"millis": func(d time.Duration) string {
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	},
	"yesno": func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Manual Control</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.valid { color: green; font-weight: bold; }
.invalid { color: red; font-weight: bold; }
.flag { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Manual Control</h1>

<h2>Selection</h2>
<table>
<tr><th>Selected Input</th><td>{{slot .Selected}}</td></tr>
<tr><th>Source</th><td>{{.Setpoint.Source}}</td></tr>
<tr><th>Setpoint</th><td class="{{if .Setpoint.Valid}}valid{{else}}invalid{{end}}">{{if .Setpoint.Valid}}VALID{{else}}INVALID{{end}}</td></tr>
</table>

<h2>Setpoint</h2>
<table>
<tr><th>Roll (x)</th><td>{{axis .Setpoint.X}}</td></tr>
<tr><th>Pitch (y)</th><td>{{axis .Setpoint.Y}}</td></tr>
<tr><th>Throttle (z)</th><td>{{axis .Setpoint.Z}}</td></tr>
<tr><th>Yaw (r)</th><td>{{axis .Setpoint.R}}</td></tr>
<tr><th>Arm Gesture</th><td{{if .Setpoint.ArmGesture}} class="flag"{{end}}>{{yesno .Setpoint.ArmGesture}}</td></tr>
<tr><th>Disarm Gesture</th><td{{if .Setpoint.DisarmGesture}} class="flag"{{end}}>{{yesno .Setpoint.DisarmGesture}}</td></tr>
<tr><th>User Override</th><td{{if .Setpoint.UserOverride}} class="flag"{{end}}>{{yesno .Setpoint.UserOverride}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Arm Commands</th><td>{{.Counts.ArmCommands}}</td></tr>
<tr><th>Disarm Commands</th><td>{{.Counts.DisarmCommands}}</td></tr>
<tr><th>Override Cycles</th><td>{{.Counts.OverrideCycles}}</td></tr>
<tr><th>Invalidations</th><td>{{.Counts.Invalidations}}</td></tr>
<tr><th>Source Changes</th><td>{{.Counts.SourceChanges}}</td></tr>
</table>

<h2>Loop</h2>
<table>
<tr><th>Cycles</th><td>{{.Loop.Cycles}}</td></tr>
<tr><th>Last</th><td>{{millis .Loop.Last}}</td></tr>
<tr><th>Average</th><td>{{millis .Loop.Average}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Period</th><td>{{.Config.PeriodMs}}ms</td></tr>
<tr><th>Source Timeout</th><td>{{.Config.SourceTimeoutMs}}ms</td></tr>
<tr><th>Gesture Hold</th><td>{{.Config.GestureHoldMs}}ms</td></tr>
<tr><th>Override Threshold</th><td>{{.Config.OverridePercent}}%</td></tr>
<tr><th>Input Mode</th><td>{{.Config.InputMode}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
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
