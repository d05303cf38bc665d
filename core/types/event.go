package types

// Event is the attribute-map form of a structured state change, suitable for
// serialization toward indexers and RPC subscribers.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
