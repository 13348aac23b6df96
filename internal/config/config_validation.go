package config

// validate checks that the final merged [StructuredConfig] satisfies the
// invariants the server relies on at startup.
func (cfg *StructuredConfig) validate() error {
	if cfg.App.Version == "" {
		return ErrInvalidAppConfigs
	}

	if cfg.Server.HTTPAddress == "" || cfg.Server.RequestTimeout <= 0 {
		return ErrInvalidServerConfigs
	}

	if cfg.Storage.DBPath == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Sync.CheckpointInterval <= 0 || cfg.Sync.SessionIdleTimeout <= 0 ||
		cfg.Sync.HoldListTTL <= 0 || cfg.Sync.HoldListSize <= 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.App.Version == "" {
		return ErrInvalidAppConfigs
	}

	if cfg.Adapter.ServerURL == "" && cfg.Adapter.DiscoveryPort == 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Adapter.RequestTimeout <= 0 || cfg.Adapter.RetryInterval <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Storage.ReplicaPath == "" {
		return ErrInvalidStorageConfigs
	}

	return nil
}
