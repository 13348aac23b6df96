// Package client implements the device-side sync runtime.
//
// It wires the local contact replica, the server transport, and the sync
// round driver into a single process lifecycle: discover or address the
// server, handshake, reconcile change lists, pull and push contacts, and
// persist the replica.
package client
