// Package server wires and runs the sync server's transports.
//
// It provides orchestration for the HTTP message endpoint and the UDP
// discovery beacon, including startup, signal handling, and graceful
// shutdown of all enabled transports.
package server
