package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestOptFloatDecoding(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
		want  float64
	}{
		{`12.5`, true, 12.5},
		{`0`, true, 0},
		{`"42"`, true, 42},
		{`" -3.5 "`, true, -3.5},
		{`null`, false, 0},
		{`"abc"`, false, 0},
		{`true`, false, 0},
		{`[1]`, false, 0},
		{`{"v":1}`, false, 0},
		{`"NaN"`, false, 0},
	}
	for _, c := range cases {
		var f OptFloat
		if err := json.Unmarshal([]byte(c.in), &f); err != nil {
			t.Fatalf("%s: unexpected error %v", c.in, err)
		}
		if f.Valid != c.valid || f.Value != c.want {
			t.Fatalf("%s: got %+v", c.in, f)
		}
	}
}

func TestOptBoolDecoding(t *testing.T) {
	cases := map[string]OptBool{
		`true`:    Bool(true),
		`false`:   Bool(false),
		`1`:       Bool(true),
		`0`:       Bool(false),
		`"1"`:     Bool(true),
		`"false"`: Bool(false),
		`2`:       {},
		`"maybe"`: {},
		`null`:    {},
	}
	for in, want := range cases {
		var b OptBool
		if err := json.Unmarshal([]byte(in), &b); err != nil {
			t.Fatalf("%s: unexpected error %v", in, err)
		}
		if b != want {
			t.Fatalf("%s: got %+v want %+v", in, b, want)
		}
	}
}

func TestTimestampParsing(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := map[string]bool{
		`"2024-01-02T03:04:05Z"`:      true,
		`"2024-01-02T05:04:05+02:00"`: true,
		`"2024-01-02T03:04:05"`:       true,
		`"2024-01-02 03:04:05"`:       true,
		`1704164645`:                  true,
		`1704164645000`:               true,
		`"yesterday"`:                 false,
		`""`:                          false,
		`{"a":1}`:                     false,
	}
	for in, ok := range cases {
		var ts Timestamp
		if err := json.Unmarshal([]byte(in), &ts); err != nil {
			t.Fatalf("%s: unexpected error %v", in, err)
		}
		if !ts.Present {
			t.Fatalf("%s: expected present", in)
		}
		got, parsed := ts.Time()
		if parsed != ok {
			t.Fatalf("%s: parsed=%v want %v", in, parsed, ok)
		}
		if ok && !got.Equal(want) {
			t.Fatalf("%s: got %v want %v", in, got, want)
		}
	}

	var missing Timestamp
	if err := json.Unmarshal([]byte(`null`), &missing); err != nil {
		t.Fatal(err)
	}
	if missing.Present {
		t.Fatal("null timestamp must be absent")
	}
}

func TestEnvelopeStampFallsBackToReceived(t *testing.T) {
	recv := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env, err := NewEnvelope(OriginPoll, recv, []byte(`{"battery":{}}`))
	if err != nil {
		t.Fatal(err)
	}
	if !env.Stamp().Equal(recv) {
		t.Fatalf("expected receive time, got %v", env.Stamp())
	}
	env, err = NewEnvelope(OriginPush, recv, []byte(`{"timestamp":"2024-06-01T00:00:00Z"}`))
	if err != nil {
		t.Fatal(err)
	}
	if env.Stamp().Year() != 2024 || env.Stamp().Month() != time.June {
		t.Fatalf("expected snapshot timestamp, got %v", env.Stamp())
	}
}
