package routing

import "fmt"

// ShardKeyed is implemented by messages that carry their shard key directly.
// It is the simplest way to plug a message type into the router without
// writing a custom ExtractShardID.
type ShardKeyed interface {
	ShardKey() ShardID
}

// ExtractShardKeyed is an ExtractShardID for messages implementing
// ShardKeyed. Messages of any other type are unroutable.
func ExtractShardKeyed(msg any) (ShardID, error) {
	keyed, ok := msg.(ShardKeyed)
	if !ok {
		return "", fmt.Errorf("message type %T does not carry a shard key", msg)
	}
	return keyed.ShardKey(), nil
}

// Envelope is a minimal ShardKeyed message wrapping an arbitrary payload.
type Envelope struct {
	// Shard identifies the shard the payload belongs to.
	Shard ShardID

	// Payload is the opaque message body.
	Payload any
}

func (e Envelope) ShardKey() ShardID { return e.Shard }
