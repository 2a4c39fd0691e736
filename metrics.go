// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import "github.com/prometheus/client_golang/prometheus"

const metricNamespace = "dtlscore"

// Metrics tracks flight-transmitter and replay-window activity across every
// session sharing one Metrics instance. Callers register one Metrics per
// process (or per listener) and set it on Config.Metrics; nothing here is
// per-session state.
type Metrics struct {
	packetsDropped    prometheus.Counter
	retransmits       prometheus.Counter
	handshakeDuration prometheus.Histogram
	cookieVerifyTotal *prometheus.CounterVec
}

// NewMetrics builds an unregistered Metrics. Call prometheus.Register (or
// MustRegister) on the result before scraping it.
func NewMetrics() *Metrics {
	return &Metrics{
		packetsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "records_dropped_total",
			Help:      "Records rejected by the anti-replay window.",
		}),
		retransmits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "flight_retransmits_total",
			Help:      "Flights resent after their retransmission timer expired.",
		}),
		handshakeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Name:      "handshake_duration_seconds",
			Help:      "Wall time from the first flight to handshake completion or TimedOut.",
			Buckets:   prometheus.DefBuckets,
		}),
		cookieVerifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "cookie_verify_total",
			Help:      "Cookie verification attempts by outcome.",
		}, []string{"outcome"}),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(descs chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(m, descs)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.packetsDropped.Collect(ch)
	m.retransmits.Collect(ch)
	m.handshakeDuration.Collect(ch)
	m.cookieVerifyTotal.Collect(ch)
}

// TrackDropped counts one record rejected by the anti-replay window.
func (m *Metrics) TrackDropped() {
	m.packetsDropped.Inc()
}

// TrackRetransmit counts one flight resend.
func (m *Metrics) TrackRetransmit() {
	m.retransmits.Inc()
}

// TrackHandshakeDuration records the seconds a handshake took to finish
// (successfully or via TimedOut).
func (m *Metrics) TrackHandshakeDuration(seconds float64) {
	m.handshakeDuration.Observe(seconds)
}

// TrackCookieVerify counts one CookieVerify call by outcome: "ok",
// "bad_cookie", or "malformed".
func (m *Metrics) TrackCookieVerify(outcome string) {
	m.cookieVerifyTotal.With(prometheus.Labels{"outcome": outcome}).Inc()
}
