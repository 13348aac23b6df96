package config

import (
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"
)

type clientConfigBuilder struct {
	configs []*ClientConfig
	err     error
}

func newClientConfigBuilder() *clientConfigBuilder {
	return &clientConfigBuilder{
		configs: make([]*ClientConfig, 0, 4),
	}
}

func (b *clientConfigBuilder) build() (*ClientConfig, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occured during building client config: %w", b.err)
	}

	config := new(ClientConfig)
	for _, cfg := range b.configs {
		if err := mergo.Merge(config, cfg); err != nil {
			return nil, fmt.Errorf("error merging client configs: %w", err)
		}
	}

	return config, config.validate()
}

func (b *clientConfigBuilder) withEnv() *clientConfigBuilder {
	envCfg := &ClientConfig{}
	if err := parseEnv(envCfg); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.configs = append(b.configs, envCfg)
	return b
}

func (b *clientConfigBuilder) withFlags() *clientConfigBuilder {
	b.configs = append(b.configs, ParseClientFlags())
	return b
}

func (b *clientConfigBuilder) withJSON() *clientConfigBuilder {
	jsonPath := ""
	for _, cfg := range b.configs {
		if cfg.JSONFilePath != "" {
			jsonPath = cfg.JSONFilePath
		}
	}

	if jsonPath != "" {
		jsonCfg, err := parseClientJSON(jsonPath)
		if err != nil {
			b.err = errors.Join(b.err, err)
			return b
		}
		b.configs = append(b.configs, jsonCfg)
	}

	return b
}

func (b *clientConfigBuilder) withDefaults() *clientConfigBuilder {
	b.configs = append(b.configs, &ClientConfig{
		App: App{
			Version: "1.0.0",
		},
		Adapter: Adapter{
			DiscoveryPort:  12778,
			RequestTimeout: 30 * time.Second,
			RetryInterval:  5 * time.Second,
		},
		Device: Device{
			Name:   "Unknown",
			IDFile: "device-id",
		},
		Storage: ClientStorage{
			ReplicaPath: "replica.json",
		},
	})
	return b
}
