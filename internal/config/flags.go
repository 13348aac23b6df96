package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

func (a *NetAddress) Set(value string) error {
	host, portRaw, found := strings.Cut(value, ":")
	if !found {
		return errors.New("need address in a form host:port")
	}

	port, err := strconv.Atoi(portRaw)
	if err != nil {
		return err
	}

	a.Host = host
	a.Port = port
	return nil
}

// ParseFlags parses the server configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-discovery-port UDP discovery beacon port
//	-d sqlite database path
//	-c/-config json file path with configs
//	-app-version protocol compatibility version
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-checkpoint-interval store autosave interval
//	-session-idle-timeout disconnected session eviction delay
//	-hold-ttl version-mismatch hold list entry lifetime
//	-hold-size version-mismatch hold list capacity
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var discoveryPort int
	var dbPath string
	var jsonConfigPath string
	var appVersion string
	var requestTimeout time.Duration
	var checkpointInterval time.Duration
	var sessionIdleTimeout time.Duration
	var holdTTL time.Duration
	var holdSize int

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.IntVar(&discoveryPort, "discovery-port", 0, "UDP discovery beacon port")
	flag.StringVar(&dbPath, "d", "", "Sqlite database path")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&appVersion, "app-version", "", "Protocol compatibility version")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flag.DurationVar(&checkpointInterval, "checkpoint-interval", 0, "Store autosave interval")
	flag.DurationVar(&sessionIdleTimeout, "session-idle-timeout", 0, "Disconnected session eviction delay")
	flag.DurationVar(&holdTTL, "hold-ttl", 0, "Version-mismatch hold list entry lifetime")
	flag.IntVar(&holdSize, "hold-size", 0, "Version-mismatch hold list capacity")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			Version: appVersion,
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			DiscoveryPort:  discoveryPort,
			RequestTimeout: requestTimeout,
		},
		Storage: Storage{
			DBPath: dbPath,
		},
		Sync: Sync{
			CheckpointInterval: checkpointInterval,
			SessionIdleTimeout: sessionIdleTimeout,
			HoldListTTL:        holdTTL,
			HoldListSize:       holdSize,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// ParseClientFlags parses the device-side client configuration flags.
//
// Flags:
//
//	-s server base URL (skip discovery)
//	-discovery-port UDP discovery probe port
//	-name device display name
//	-id-file device id file path
//	-replica local replica file path
//	-c/-config json file path with configs
//	-app-version protocol compatibility version
//	-request-timeout request timeout
//	-retry-interval delay between Hello attempts while authorization is pending
func ParseClientFlags() *ClientConfig {
	var serverURL string
	var discoveryPort int
	var deviceName string
	var idFile string
	var replicaPath string
	var jsonConfigPath string
	var appVersion string
	var requestTimeout time.Duration
	var retryInterval time.Duration

	flag.StringVar(&serverURL, "s", "", "Server base URL")
	flag.IntVar(&discoveryPort, "discovery-port", 0, "UDP discovery probe port")
	flag.StringVar(&deviceName, "name", "", "Device display name")
	flag.StringVar(&idFile, "id-file", "", "Device id file path")
	flag.StringVar(&replicaPath, "replica", "", "Local replica file path")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&appVersion, "app-version", "", "Protocol compatibility version")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flag.DurationVar(&retryInterval, "retry-interval", 0, "Delay between Hello attempts")

	flag.Parse()

	return &ClientConfig{
		App: App{
			Version: appVersion,
		},
		Adapter: Adapter{
			ServerURL:      serverURL,
			DiscoveryPort:  discoveryPort,
			RequestTimeout: requestTimeout,
			RetryInterval:  retryInterval,
		},
		Device: Device{
			Name:   deviceName,
			IDFile: idFile,
		},
		Storage: ClientStorage{
			ReplicaPath: replicaPath,
		},
		JSONFilePath: jsonConfigPath,
	}
}
