package models

// Message is the wire envelope carried by the transport: a command name from
// the fixed protocol vocabulary plus an opaque parameter payload whose shape
// is specific to the command.
type Message struct {
	Command    string `json:"command"`
	Parameters string `json:"parameters"`
}
