package metrics

// Portal engine instrumentation hooks.

func (m *Metrics) QueryCompleted(kind, outcome string) {
	m.PortalQueriesTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) QueryDuration(kind string, seconds float64) {
	m.PortalDurationSeconds.WithLabelValues(kind).Observe(seconds)
}

func (m *Metrics) AttemptFinished(variant, result string) {
	m.PortalAttemptsTotal.WithLabelValues(variant, result).Inc()
}

func (m *Metrics) ExtractorHit(strategy string) {
	m.PortalExtractorHits.WithLabelValues(strategy).Inc()
}
