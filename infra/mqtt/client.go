package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremon "github.com/kilianp07/leafdash/core/monitoring"
	"github.com/kilianp07/leafdash/infra/logger"
)

// DefaultTopic carries snapshot JSON for the MQTT push transport.
const DefaultTopic = "leafdash/telemetry"

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker     string          `json:"broker"`
	ClientID   string          `json:"client_id"`
	Username   string          `json:"username"`
	Password   string          `json:"password"`
	Topic      string          `json:"topic"`
	UseTLS     bool            `json:"use_tls"`
	ClientCert string          `json:"client_cert"`
	ClientKey  string          `json:"client_key"`
	CABundle   string          `json:"ca_bundle"`
	AuthMethod string          `json:"auth_method"`
	QoS        map[string]byte `json:"qos"`
	LWTTopic   string          `json:"lwt_topic"`
	LWTPayload string          `json:"lwt_payload"`
	LWTQoS     byte            `json:"lwt_qos"`
	LWTRetain  bool            `json:"lwt_retain"`
	MaxRetries int             `json:"max_retries"`
	BackoffMS  int             `json:"backoff_ms"`
	TLSConfig  *tls.Config     `json:"-"`
}

// SetDefaults fills the client id and topic.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "leafdash-" + uuid.NewString()[:8]
	}
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks the broker address and auth method.
func (c Config) Validate() error {
	if c.Broker == "" {
		return errors.New("mqtt: broker is required")
	}
	switch c.AuthMethod {
	case "", "username_password", "certificate", "both":
	default:
		return fmt.Errorf("mqtt: unknown auth_method %q", c.AuthMethod)
	}
	return nil
}

func (c Config) qos(kind string) byte {
	if q, ok := c.QoS[kind]; ok {
		return q
	}
	return 0
}

// Handler receives one message payload.
type Handler func(topic string, payload []byte)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient wraps an Eclipse Paho client. Subscriptions are replayed on
// every reconnect.
type PahoClient struct {
	cfg     Config
	cli     pahoClient
	logger  logger.Logger
	monitor coremon.Monitor

	mu      sync.Mutex
	subs    map[string]Handler
	onState func(connected bool)
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient prepares a client; Connect opens the session.
func NewPahoClient(cfg Config, mon coremon.Monitor) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_client")
	pc := &PahoClient{
		cfg:     cfg,
		logger:  log,
		monitor: coremon.OrNop(mon),
		subs:    make(map[string]Handler),
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
		pc.resubscribe(c)
		pc.notify(true)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
		pc.notify(false)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	pc.cli = newMQTTClient(opts)
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	opts.ConnectRetry = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

// Topic returns the configured telemetry topic.
func (p *PahoClient) Topic() string { return p.cfg.Topic }

// OnStateChange registers fn to be called on connect and connection loss.
func (p *PahoClient) OnStateChange(fn func(connected bool)) {
	p.mu.Lock()
	p.onState = fn
	p.mu.Unlock()
}

func (p *PahoClient) notify(connected bool) {
	p.mu.Lock()
	fn := p.onState
	p.mu.Unlock()
	if fn != nil {
		fn(connected)
	}
}

// Connect opens the broker session.
func (p *PahoClient) Connect(timeout time.Duration) error {
	token := p.cli.Connect()
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt connect to %s: timeout after %s", p.cfg.Broker, timeout)
	}
	if err := token.Error(); err != nil {
		coremon.Capture(p.monitor, "mqtt", err)
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// IsConnected reports whether the session is up.
func (p *PahoClient) IsConnected() bool { return p.cli != nil && p.cli.IsConnected() }

// Subscribe registers h for topic. The subscription is sent immediately when
// connected and again after each reconnect.
func (p *PahoClient) Subscribe(topic string, h Handler) error {
	p.mu.Lock()
	p.subs[topic] = h
	p.mu.Unlock()
	if !p.IsConnected() {
		return nil
	}
	return p.subscribe(p.cli, topic, h)
}

func (p *PahoClient) subscribe(c pahoClient, topic string, h Handler) error {
	token := c.Subscribe(topic, p.cfg.qos("telemetry"), func(_ paho.Client, msg paho.Message) {
		h(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		p.logger.Errorf("subscribe %s: %v", topic, token.Error())
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	p.logger.Infof("subscribed to %s", topic)
	return nil
}

func (p *PahoClient) resubscribe(c pahoClient) {
	p.mu.Lock()
	subs := make(map[string]Handler, len(p.subs))
	for t, h := range p.subs {
		subs[t] = h
	}
	p.mu.Unlock()
	for t, h := range subs {
		_ = p.subscribe(c, t, h)
	}
}

// Publish sends payload to topic, retrying with exponential backoff.
func (p *PahoClient) Publish(topic string, payload []byte, retained bool) error {
	backoff := time.Duration(p.cfg.BackoffMS) * time.Millisecond
	var publishErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		token := p.cli.Publish(topic, p.cfg.qos("publish"), retained, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.cfg.MaxRetries {
			time.Sleep(backoff * time.Duration(1<<attempt))
		}
	}
	p.monitor.CaptureException(publishErr, map[string]string{"module": "mqtt", "topic": topic})
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
