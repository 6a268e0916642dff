package model

import (
	"encoding/json"
	"time"
)

// Origin identifies how a snapshot reached the controller.
type Origin string

const (
	OriginPush   Origin = "push"
	OriginPoll   Origin = "poll"
	OriginReplay Origin = "replay"
)

// Envelope wraps a decoded snapshot with its delivery metadata.
type Envelope struct {
	Seq      uint64          `json:"seq"`
	Origin   Origin          `json:"origin"`
	Received time.Time       `json:"received"`
	Snapshot *Snapshot       `json:"-"`
	Raw      json.RawMessage `json:"snapshot"`
}

// NewEnvelope decodes raw into an envelope. Seq is left for the consumer.
func NewEnvelope(origin Origin, received time.Time, raw []byte) (Envelope, error) {
	snap, err := ParseSnapshot(raw)
	if err != nil {
		return Envelope{}, err
	}
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	return Envelope{Origin: origin, Received: received, Snapshot: snap, Raw: cp}, nil
}

// Stamp is the ordering key of the envelope: the snapshot timestamp when it
// parses, the receive time otherwise.
func (e Envelope) Stamp() time.Time {
	if ts, ok := e.Snapshot.Time(); ok {
		return ts
	}
	return e.Received
}
