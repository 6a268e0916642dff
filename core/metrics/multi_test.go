package metrics

import "testing"

type recordSink struct {
	count int
}

func (r *recordSink) RecordProjection(ProjectionEvent) error {
	r.count++
	return nil
}

func (r *recordSink) RecordFetch(FetchEvent) error {
	r.count++
	return nil
}

// projectionOnly lacks the optional recorders.
type projectionOnly struct{ count int }

func (p *projectionOnly) RecordProjection(ProjectionEvent) error {
	p.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	s3 := &projectionOnly{}
	m := NewMultiSink(s1, s2, s3)
	if err := m.RecordProjection(ProjectionEvent{}); err != nil {
		t.Fatalf("record projection: %v", err)
	}
	if err := m.RecordFetch(FetchEvent{}); err != nil {
		t.Fatalf("record fetch: %v", err)
	}
	if err := m.RecordDiscard(DiscardEvent{}); err != nil {
		t.Fatalf("record discard: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("events not forwarded: %d %d", s1.count, s2.count)
	}
	if s3.count != 1 {
		t.Fatalf("expected projection only, got %d", s3.count)
	}
}

func TestConfigHasSink(t *testing.T) {
	var c Config
	if c.HasSink("prometheus") {
		t.Fatal("empty config has no sinks")
	}
}
