// Package syncer is the heart of the contact synchronization engine: the
// per-device session state machine, the address-keyed session registry, the
// version-mismatch hold list, and the engine object that routes inbound wire
// messages to the right session.
//
// The engine is driven by asynchronous message arrival from the transport
// collaborator. Each inbound message is an independent unit of work; all
// contact mutations funnel through the store's single merge section, while
// per-session state is guarded by per-session locks so different devices
// never contend with each other.
package syncer
