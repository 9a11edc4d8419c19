package live

// Message types
const (
	// TypeHello is sent once on connect with the ETag currently served.
	TypeHello = "hello"
	// TypeDiagramUpdated is broadcast after the diagram file is reloaded.
	TypeDiagramUpdated = "diagram.updated"
	// TypeDiagramRemoved is broadcast when the diagram file disappears.
	TypeDiagramRemoved = "diagram.removed"
)

// Message is the server-to-page envelope. Pages never send messages; any
// they do send are discarded.
type Message struct {
	Type string `json:"type"`
	ETag string `json:"etag,omitempty"`
}
