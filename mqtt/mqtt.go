// Package mqtt publishes kiosk status to the warehouse broker and accepts
// control messages for the station. A kiosk with no broker configured runs
// with a disabled client so the rest of the station is unaffected.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Config holds broker connection settings.
type Config struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	CACert     string `yaml:"ca_cert"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
}

// Handlers holds callback functions for broker events. OnMessage receives
// messages on the station's control topics.
type Handlers struct {
	OnConnect    func()
	OnDisconnect func()
	OnMessage    func(topic string, payload []byte)
}

// Client speaks the station's slice of the wms topic tree: status events
// out, control commands in. All publish methods are safe to call on a
// disabled client.
type Client struct {
	client    paho.Client
	stationID string
	enabled   bool
	handlers  Handlers
}

// New creates the broker client for a station. An empty host yields a
// disabled no-op client.
func New(cfg Config, stationID string, handlers Handlers) (*Client, error) {
	c := &Client{
		stationID: stationID,
		handlers:  handlers,
	}

	if cfg.Host == "" {
		log.Printf("MQTT disabled for station %s (no host configured)", stationID)
		return c, nil
	}
	c.enabled = true

	broker, tlsConfig, err := brokerURL(cfg)
	if err != nil {
		return nil, err
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("badgekiosk-" + stationID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetKeepAlive(60 * time.Second).
		SetConnectionLostHandler(c.brokerLost).
		SetOnConnectHandler(c.brokerUp).
		SetDefaultPublishHandler(c.dispatch)

	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}

	c.client = paho.NewClient(opts)

	paho.ERROR = log.New(os.Stdout, "[MQTT ERROR] ", 0)
	paho.CRITICAL = log.New(os.Stdout, "[MQTT CRIT] ", 0)
	paho.WARN = log.New(os.Stdout, "[MQTT WARN] ", 0)

	return c, nil
}

// brokerURL derives the broker address and TLS settings from cfg. Any
// certificate material switches the connection to ssl on port 8883.
func brokerURL(cfg Config) (string, *tls.Config, error) {
	if cfg.CACert == "" && cfg.ClientCert == "" {
		if cfg.Port == 0 {
			cfg.Port = 1883
		}
		log.Println("MQTT using non-TLS connection")
		return fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port), nil, nil
	}

	if cfg.Port == 0 {
		cfg.Port = 8883
	}

	tlsConfig := &tls.Config{}
	if cfg.CACert != "" {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return "", nil, fmt.Errorf("read CA cert: %w", err)
		}
		caPool := x509.NewCertPool()
		caPool.AppendCertsFromPEM(caCert)
		tlsConfig.RootCAs = caPool
	}
	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return "", nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return fmt.Sprintf("ssl://%s:%d", cfg.Host, cfg.Port), tlsConfig, nil
}

// Connect connects to the broker. If disabled, OnConnect fires immediately
// so the station proceeds to its ready state.
func (c *Client) Connect() error {
	if !c.enabled {
		if c.handlers.OnConnect != nil {
			c.handlers.OnConnect()
		}
		return nil
	}

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect: %w", token.Error())
	}
	log.Println("MQTT connected")
	return nil
}

// Disconnect disconnects from the broker. No-op if disabled.
func (c *Client) Disconnect() {
	if !c.enabled || c.client == nil {
		return
	}
	c.client.Disconnect(250)
}

// Subscribe subscribes to a topic. No-op if disabled.
func (c *Client) Subscribe(topic string) error {
	if !c.enabled {
		return nil
	}

	if token := c.client.Subscribe(topic, 0, nil); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}

// Publish publishes a message to a topic. No-op if disabled.
func (c *Client) Publish(topic string, payload []byte) {
	if !c.enabled {
		return
	}
	c.client.Publish(topic, 0, false, payload)
}

// Enabled reports whether a broker is configured.
func (c *Client) Enabled() bool {
	return c.enabled
}

func (c *Client) brokerUp(client paho.Client) {
	log.Println("MQTT connection established")
	if c.handlers.OnConnect != nil {
		c.handlers.OnConnect()
	}
}

func (c *Client) brokerLost(client paho.Client, err error) {
	log.Printf("MQTT connection lost: %v", err)
	if c.handlers.OnDisconnect != nil {
		c.handlers.OnDisconnect()
	}
}

func (c *Client) dispatch(client paho.Client, msg paho.Message) {
	if c.handlers.OnMessage != nil {
		c.handlers.OnMessage(msg.Topic(), msg.Payload())
	}
}
