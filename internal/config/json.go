package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON-friendly field
// types; durations accept both "30s" strings and nanosecond numbers.
type StructuredJSONConfig struct {
	App struct {
		Version string `json:"version"`
	} `json:"app,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		DiscoveryPort  int      `json:"discovery_port"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	Storage struct {
		DBPath string `json:"db_path"`
	} `json:"storage,omitempty"`

	Sync struct {
		CheckpointInterval Duration `json:"checkpoint_interval"`
		SessionIdleTimeout Duration `json:"session_idle_timeout"`
		HoldListTTL        Duration `json:"hold_list_ttl"`
		HoldListSize       int      `json:"hold_list_size"`
	} `json:"sync,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			Version: jsonCfg.App.Version,
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			DiscoveryPort:  jsonCfg.Server.DiscoveryPort,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
		},
		Storage: Storage{
			DBPath: jsonCfg.Storage.DBPath,
		},
		Sync: Sync{
			CheckpointInterval: time.Duration(jsonCfg.Sync.CheckpointInterval),
			SessionIdleTimeout: time.Duration(jsonCfg.Sync.SessionIdleTimeout),
			HoldListTTL:        time.Duration(jsonCfg.Sync.HoldListTTL),
			HoldListSize:       jsonCfg.Sync.HoldListSize,
		},
	}

	return cfg, nil
}

// ClientJSONConfig mirrors [ClientConfig] for JSON parsing.
type ClientJSONConfig struct {
	App struct {
		Version string `json:"version"`
	} `json:"app,omitempty"`

	Adapter struct {
		ServerURL      string   `json:"server_url"`
		DiscoveryPort  int      `json:"discovery_port"`
		RequestTimeout Duration `json:"request_timeout"`
		RetryInterval  Duration `json:"retry_interval"`
	} `json:"adapter,omitempty"`

	Device struct {
		Name   string `json:"name"`
		IDFile string `json:"id_file"`
	} `json:"device,omitempty"`

	Storage struct {
		ReplicaPath string `json:"replica_path"`
	} `json:"storage,omitempty"`
}

func parseClientJSON(jsonFilePath string) (*ClientConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg ClientJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &ClientConfig{
		App: App{
			Version: jsonCfg.App.Version,
		},
		Adapter: Adapter{
			ServerURL:      jsonCfg.Adapter.ServerURL,
			DiscoveryPort:  jsonCfg.Adapter.DiscoveryPort,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
			RetryInterval:  time.Duration(jsonCfg.Adapter.RetryInterval),
		},
		Device: Device{
			Name:   jsonCfg.Device.Name,
			IDFile: jsonCfg.Device.IDFile,
		},
		Storage: ClientStorage{
			ReplicaPath: jsonCfg.Storage.ReplicaPath,
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON
// unmarshaling from strings like "1h", "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
