package protocol

// Discovery wire format. A device broadcasts DiscoveryProbe on the discovery
// port; the server answers with DiscoveryAnnouncePrefix followed by the
// address of its message endpoint.
const (
	DiscoveryProbe          = "contactsync?"
	DiscoveryAnnouncePrefix = "contactsync@"
)
