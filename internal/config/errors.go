package config

import "errors"

// Validation errors returned when the final merged configuration is
// incomplete or inconsistent.
var (
	// ErrInvalidServerConfigs indicates invalid server network settings
	// (for example, missing listen address).
	ErrInvalidServerConfigs = errors.New("invalid server configuration")
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, empty database path).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidAppConfigs indicates invalid application-level settings
	// (for example, missing protocol version).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidSyncConfigs indicates invalid sync engine tunables
	// (for example, a zero hold-list capacity).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
	// ErrInvalidAdapterConfigs indicates invalid client adapter settings
	// (for example, neither server URL nor discovery port).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
)
