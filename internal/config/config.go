package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the desktop
// sync server. It aggregates all sub-configurations and is populated by
// merging values from environment variables, command-line flags, and an
// optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the protocol version
	// exchanged in the Hello handshake.
	App App `envPrefix:"APP_"`

	// Server holds network address and timeout settings for the inbound
	// message transport and the discovery beacon.
	Server Server `envPrefix:"SERVER_"`

	// Storage holds configuration for the sqlite database backing the
	// contact snapshot and the trusted-device list.
	Storage Storage `envPrefix:"STORAGE_"`

	// Sync holds tunables of the sync engine itself: checkpoint cadence,
	// session staleness, and the version-mismatch hold list bounds.
	Sync Sync `envPrefix:"SYNC_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// Version is the protocol compatibility version of this build
	// (e.g. "1.2.0"). A device whose Hello carries a different version is
	// placed on the mismatch hold list and refused sync.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Server holds network and timeout settings for the inbound transport layer.
type Server struct {
	// HTTPAddress is the TCP address on which the message endpoint listens,
	// in "host:port" format (e.g. "0.0.0.0:12777").
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// DiscoveryPort is the UDP port on which the discovery beacon answers
	// service probes from devices. Zero disables the beacon.
	// Env: SERVER_DISCOVERY_PORT
	DiscoveryPort int `env:"DISCOVERY_PORT"`

	// RequestTimeout is the maximum duration allowed for a single inbound
	// request before the server cancels it (e.g. "30s").
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage holds settings for the persistence backend.
type Storage struct {
	// DBPath is the path of the sqlite database file.
	// Env: STORAGE_DB_PATH
	DBPath string `env:"DB_PATH"`
}

// Sync holds tunables of the sync engine.
type Sync struct {
	// CheckpointInterval is how often the background worker persists the
	// in-memory store between rounds.
	// Env: SYNC_CHECKPOINT_INTERVAL
	CheckpointInterval time.Duration `env:"CHECKPOINT_INTERVAL"`

	// SessionIdleTimeout is how long a disconnected session lingers in the
	// registry before the sweeper evicts it.
	// Env: SYNC_SESSION_IDLE_TIMEOUT
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT"`

	// HoldListTTL bounds how long a version-mismatched device stays on the
	// hold list before its Hello is considered afresh.
	// Env: SYNC_HOLD_LIST_TTL
	HoldListTTL time.Duration `env:"HOLD_LIST_TTL"`

	// HoldListSize bounds how many devices the hold list tracks at once.
	// Env: SYNC_HOLD_LIST_SIZE
	HoldListSize int `env:"HOLD_LIST_SIZE"`
}

// ClientConfig is the top-level configuration container for the device-side
// sync client.
type ClientConfig struct {
	// App holds the client's protocol version, which must match the
	// server's for sync to proceed.
	App App `envPrefix:"APP_"`

	// Adapter holds settings for reaching the desktop server.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Device identifies this replica to the server.
	Device Device `envPrefix:"DEVICE_"`

	// Storage holds the local replica file settings.
	Storage ClientStorage `envPrefix:"STORAGE_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Env: CONFIG
	JSONFilePath string `env:"CONFIG"`
}

// Adapter holds configuration for the client's server proxy.
type Adapter struct {
	// ServerURL is the base URL of the desktop server's message endpoint
	// (e.g. "http://192.168.1.10:12777"). When empty the client discovers
	// the server via the UDP beacon.
	// Env: ADAPTER_SERVER_URL
	ServerURL string `env:"SERVER_URL"`

	// DiscoveryPort is the UDP port probed when ServerURL is empty.
	// Env: ADAPTER_DISCOVERY_PORT
	DiscoveryPort int `env:"DISCOVERY_PORT"`

	// RequestTimeout bounds each round-trip to the server.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// RetryInterval is how long the client waits between Hello attempts
	// while authorization is pending.
	// Env: ADAPTER_RETRY_INTERVAL
	RetryInterval time.Duration `env:"RETRY_INTERVAL"`
}

// Device identifies the replica.
type Device struct {
	// Name is the human-readable device name shown in the approval prompt.
	// Env: DEVICE_NAME
	Name string `env:"NAME"`

	// IDFile is the path of the file holding the device's generated id.
	// A fresh id is generated and written on first run.
	// Env: DEVICE_ID_FILE
	IDFile string `env:"ID_FILE"`
}

// ClientStorage holds the local replica file settings.
type ClientStorage struct {
	// ReplicaPath is the path of the JSON file holding the device's local
	// contact replica.
	// Env: STORAGE_REPLICA_PATH
	ReplicaPath string `env:"REPLICA_PATH"`
}

// GetStructuredConfig loads, merges and validates the server configuration.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
}

// GetClientConfig loads, merges and validates the client configuration.
func GetClientConfig() (*ClientConfig, error) {
	return newClientConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
}
