package source

import (
	"context"
	"time"

	coremetrics "github.com/kilianp07/leafdash/core/metrics"
	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/infra/logger"
	"github.com/kilianp07/leafdash/infra/mqtt"
)

// MQTTPush receives snapshot JSON published on the telemetry topic.
type MQTTPush struct {
	client  *mqtt.PahoClient
	timeout time.Duration
	state   *ConnFSM
	log     logger.Logger
}

// NewMQTTPush wraps an unconnected client.
func NewMQTTPush(client *mqtt.PahoClient, sink coremetrics.MetricsSink) *MQTTPush {
	log := logger.New("source-mqtt")
	return &MQTTPush{
		client:  client,
		timeout: 10 * time.Second,
		state:   NewConnFSM(stateReporter("mqtt", log, sink)),
		log:     log,
	}
}

func (m *MQTTPush) Name() string { return "mqtt" }

func (m *MQTTPush) Connected() bool { return m.state.Connected() }

// State returns the connection state.
func (m *MQTTPush) State() string { return m.state.Current() }

// Run subscribes, connects and waits for ctx. Paho reconnects on its own and
// replays the subscription.
func (m *MQTTPush) Run(ctx context.Context, emit Emit) error {
	bg := context.Background()
	m.client.OnStateChange(func(connected bool) {
		if connected {
			_ = m.state.Fire(bg, EventDial)
			_ = m.state.Fire(bg, EventOpen)
			_ = m.state.Fire(bg, EventSubscribe)
			return
		}
		_ = m.state.Fire(bg, EventDrop)
	})
	if err := m.client.Subscribe(m.client.Topic(), func(topic string, payload []byte) {
		env, err := model.NewEnvelope(model.OriginPush, time.Now(), payload)
		if err != nil {
			m.log.Warnf("drop malformed snapshot on %s: %v", topic, err)
			return
		}
		emit(env)
	}); err != nil {
		return err
	}
	_ = m.state.Fire(bg, EventDial)
	if err := m.client.Connect(m.timeout); err != nil {
		// paho keeps retrying in the background
		m.log.Warnf("mqtt: %v", err)
	}
	<-ctx.Done()
	m.client.Disconnect()
	_ = m.state.Fire(bg, EventDrop)
	return nil
}
