package config

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// UDP destination of the sender
	UDPHost string
	UDPPort int

	// Receiver
	ReceiverListenAddr string

	// MQTT (empty broker disables relaying)
	MQTTBroker           string
	MQTTClientIDReceiver string
	MQTTClientIDConsole  string
	TopicFrame           string

	// GPS (empty port keeps the fixed GPS block)
	GPSSerialPort string
	GPSBaudRate   int
	GPSWait       int // milliseconds

	// Web Server (0 disables)
	WebServerPort int
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		UDPHost:              "127.0.0.1",
		UDPPort:              6666,
		ReceiverListenAddr:   ":6666",
		MQTTClientIDReceiver: "telemetry-receiver",
		MQTTClientIDConsole:  "telemetry-console",
		TopicFrame:           "telemetry/frame",
		GPSBaudRate:          9600,
		GPSWait:              2000,
	}
}

// Load reads the configuration file on top of the defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines from r on top of the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// UDP
	case "UDP_HOST":
		c.UDPHost = value
	case "UDP_PORT":
		port, err := parsePort(key, value)
		if err != nil {
			return err
		}
		c.UDPPort = port

	// Receiver
	case "RECEIVER_LISTEN_ADDR":
		if _, _, err := net.SplitHostPort(value); err != nil {
			return fmt.Errorf("invalid RECEIVER_LISTEN_ADDR %q: %w", value, err)
		}
		c.ReceiverListenAddr = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_RECEIVER":
		c.MQTTClientIDReceiver = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "TOPIC_FRAME":
		c.TopicFrame = value

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		if rate <= 0 {
			return fmt.Errorf("GPS_BAUD_RATE must be positive, got %d", rate)
		}
		c.GPSBaudRate = rate
	case "GPS_WAIT":
		wait, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_WAIT %q: %w", value, err)
		}
		if wait < 0 {
			return fmt.Errorf("GPS_WAIT must not be negative, got %d", wait)
		}
		c.GPSWait = wait

	// Web Server
	case "WEB_SERVER_PORT":
		if value == "0" {
			c.WebServerPort = 0
			return nil
		}
		port, err := parsePort(key, value)
		if err != nil {
			return err
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func parsePort(key, value string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%s must be 1-65535, got %d", key, port)
	}
	return port, nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.UDPHost == "" {
		return fmt.Errorf("UDP_HOST is required")
	}
	if c.ReceiverListenAddr == "" {
		return fmt.Errorf("RECEIVER_LISTEN_ADDR is required")
	}
	if c.MQTTBroker != "" && c.TopicFrame == "" {
		return fmt.Errorf("TOPIC_FRAME is required when MQTT_BROKER is set")
	}
	return nil
}

// UDPAddr returns the sender destination as host:port.
func (c *Config) UDPAddr() string {
	return net.JoinHostPort(c.UDPHost, strconv.Itoa(c.UDPPort))
}

// InitGlobal initializes the global configuration, from file when
// configPath is set and from Default otherwise. Only the first call has
// any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		if configPath == "" {
			globalConfig = Default()
			return
		}
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
