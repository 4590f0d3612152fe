package publisher

// Publisher represents a service for publishing run results to
// downstream consumers
type Publisher interface {
	// Publish publishes a message under a key to the run stream
	Publish(key string, message []byte) error

	// TrimStream trims the stream to the configured maximum length
	TrimStream() error

	// Close closes the publisher connection
	Close() error
}
