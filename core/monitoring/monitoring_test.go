package monitoring

import (
	"errors"
	"testing"
	"time"
)

type recordingMonitor struct {
	errs []error
	tags []map[string]string
}

func (r *recordingMonitor) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recordingMonitor) Recover()            {}
func (r *recordingMonitor) Flush(time.Duration) {}

func TestCaptureTagsComponent(t *testing.T) {
	rec := &recordingMonitor{}
	Capture(rec, "journal", errors.New("disk full"))
	Capture(rec, "journal", nil)
	if len(rec.errs) != 1 {
		t.Fatalf("expected 1 capture, got %d", len(rec.errs))
	}
	if rec.tags[0]["component"] != "journal" {
		t.Fatalf("unexpected tags %v", rec.tags[0])
	}
}

func TestOrNop(t *testing.T) {
	if _, ok := OrNop(nil).(NopMonitor); !ok {
		t.Fatal("expected NopMonitor for nil")
	}
	rec := &recordingMonitor{}
	if OrNop(rec) != Monitor(rec) {
		t.Fatal("expected monitor passthrough")
	}
	Capture(nil, "x", errors.New("ignored"))
}
