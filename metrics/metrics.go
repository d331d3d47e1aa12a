// Package metrics wires the command engine's exchange events into
// Prometheus counters and a latency histogram.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements ninawire.Recorder, exporting command throughput,
// the count of exchanges that failed with any error, and exchange
// latency.
type Recorder struct {
	commandsTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New registers the recorder's metrics on reg and returns it.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ninawire",
			Name:      "commands_total",
			Help:      "Command exchanges issued, by opcode.",
		}, []string{"opcode"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ninawire",
			Name:      "command_errors_total",
			Help:      "Command exchanges that returned an error, by opcode.",
		}, []string{"opcode"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ninawire",
			Name:      "command_duration_seconds",
			Help:      "Duration of a full two-transaction command exchange.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"opcode"}),
	}
	reg.MustRegister(r.commandsTotal, r.errorsTotal, r.latency)
	return r
}

// ObserveCommand implements ninawire.Recorder.
func (r *Recorder) ObserveCommand(opcode byte, d time.Duration, err error) {
	label := opcodeLabel(opcode)
	r.commandsTotal.WithLabelValues(label).Inc()
	r.latency.WithLabelValues(label).Observe(d.Seconds())
	if err != nil {
		r.errorsTotal.WithLabelValues(label).Inc()
	}
}

func opcodeLabel(opcode byte) string {
	const hex = "0123456789abcdef"
	return "0x" + string([]byte{hex[opcode>>4], hex[opcode&0xF]})
}
