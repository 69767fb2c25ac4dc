package web

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/sweeney/drive-timer/internal/logic"
	"github.com/sweeney/drive-timer/internal/status"
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
	"clock": func(seconds int) string {
		return logic.FormatDrive(seconds, false)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Drive Timer</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.big { font-size: 2em; }
.running { color: green; font-weight: bold; }
.stopped { color: #888; }
.armed { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Drive Timer</h1>

<h2>Timers</h2>
<table>
<tr><th>Drive</th><td id="drive" class="big {{if .Drive.Running}}running{{else}}stopped{{end}}">{{.Drive.Value}}</td></tr>
<tr><th>Drive left</th><td id="drive-left">{{.Drive.Left}}</td></tr>
<tr><th>Rest</th><td id="rest" class="big {{if .Rest.Running}}running{{else}}stopped{{end}}">{{.Rest.Value}}</td></tr>
<tr><th>Rest left</th><td id="rest-left">{{.Rest.Left}}</td></tr>
{{if .ResetArmed}}<tr><th>Reset</th><td class="armed">press again to confirm</td></tr>{{end}}
</table>

<h2>Rules</h2>
<table>
<tr><th>Jurisdiction</th><td>{{.Settings.Jurisdiction}}</td></tr>
<tr><th>Compact display</th><td>{{if .Settings.Compact}}on{{else}}off{{end}}</td></tr>
<tr><th>Drive limit</th><td>{{clock .Rules.DriveLimit}}</td></tr>
<tr><th>Rest required</th><td>{{clock .Rules.RestLimit}}</td></tr>
<tr><th>Short break credit</th><td>{{if .Rules.RestPreThreshold}}{{clock .Rules.RestPreThreshold}}{{else}}none{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
{{range .Counts}}<tr><th>{{.Type}}</th><td>{{.Count}}</td></tr>
{{else}}<tr><td>none yet</td></tr>
{{end}}</table>

<h2>System</h2>
<table>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Storage</th><td>{{.Config.Storage}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

type eventCount struct {
	Type  logic.EventType
	Count int
}

func renderHTML(w io.Writer, snap status.Snapshot) error {
	counts := make([]eventCount, 0, len(snap.Counts))
	for k, v := range snap.Counts {
		counts = append(counts, eventCount{Type: k, Count: v})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Type < counts[j].Type })

	// Snapshot has Uptime() and Counts as a map; the template wants fields.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Counts []eventCount
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Counts:   counts,
	}
	return indexTmpl.Execute(w, data)
}
