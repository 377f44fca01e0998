package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"kobuki-controller/kobuki"
	"kobuki-controller/script"
	"kobuki-controller/sequencer"
)

const metricsNamespace = "kobuki"

// Metrics collects run counters in a private registry
type Metrics struct {
	registry *prometheus.Registry

	FramesSent   *prometheus.CounterVec
	SendFailures *prometheus.CounterVec
	Commands     *prometheus.CounterVec
	LedState     prometheus.Gauge
	Phase        *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_sent_total",
			Help:      "Frames handed to the transport without error.",
		}, []string{"kind"}),
		SendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frame_send_failures_total",
			Help:      "Frames the transport failed to send.",
		}, []string{"kind"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "script_commands_total",
			Help:      "Script commands started.",
		}, []string{"kind"}),
		LedState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "led_state",
			Help:      "Cumulative LED bitmask last sent.",
		}),
		Phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "run_phase",
			Help:      "1 for the phase the run is in.",
		}, []string{"phase"}),
	}

	m.registry.MustRegister(m.FramesSent, m.SendFailures, m.Commands, m.LedState, m.Phase)
	return m
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) PhaseChanged(phase sequencer.Phase) {
	m.Phase.Reset()
	m.Phase.WithLabelValues(phase.String()).Set(1)
}

func (m *Metrics) StepStarted(index int, cmd script.Command) {
	m.Commands.WithLabelValues(cmd.Kind().String()).Inc()
}

func (m *Metrics) FrameSent(kind kobuki.FrameKind, frame []byte, err error) {
	if err != nil {
		m.SendFailures.WithLabelValues(kind.String()).Inc()
		return
	}
	m.FramesSent.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) LedStateChanged(state kobuki.LedState) {
	m.LedState.Set(float64(state))
}

var _ sequencer.Observer = (*Metrics)(nil)
