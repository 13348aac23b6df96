// Package config provides configuration loading, merging, and validation
// facilities for the application.
//
// Configuration is assembled from multiple sources in the following priority
// order (later sources override earlier non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file
//  4. Built-in defaults (lowest priority)
//
// The main entry points are [GetStructuredConfig] for the desktop server
// and [GetClientConfig] for the device-side sync client.
package config
