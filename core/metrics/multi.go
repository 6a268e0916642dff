package metrics

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordProjection forwards to all sinks, returning the first error encountered.
func (m *MultiSink) RecordProjection(ev ProjectionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordProjection(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordFetch forwards fetch events to sinks that support them.
func (m *MultiSink) RecordFetch(ev FetchEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(FetchRecorder); ok {
			if err := rec.RecordFetch(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDiscard forwards discard events.
func (m *MultiSink) RecordDiscard(ev DiscardEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DiscardRecorder); ok {
			if err := rec.RecordDiscard(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordPushState forwards push state events.
func (m *MultiSink) RecordPushState(ev PushStateEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PushStateRecorder); ok {
			if err := rec.RecordPushState(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordViewClients forwards the display client count.
func (m *MultiSink) RecordViewClients(n int) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ViewClientsRecorder); ok {
			if err := rec.RecordViewClients(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() { closeSinks(m.Sinks) }
