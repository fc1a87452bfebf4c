package metrics

// NoopCollector is a no-op implementation of the Collector interface.
// All methods are empty stubs that do nothing.
type NoopCollector struct{}

// ConnectionOpened is a no-op.
func (n *NoopCollector) ConnectionOpened() {}

// ConnectionClosed is a no-op.
func (n *NoopCollector) ConnectionClosed() {}

// AuthAttempt is a no-op.
func (n *NoopCollector) AuthAttempt(success bool) {}

// LockContention is a no-op.
func (n *NoopCollector) LockContention() {}

// CommandProcessed is a no-op.
func (n *NoopCollector) CommandProcessed(command string) {}

// MessageRetrieved is a no-op.
func (n *NoopCollector) MessageRetrieved(sizeBytes int64) {}

// MessageDeleted is a no-op.
func (n *NoopCollector) MessageDeleted() {}

// MessageListed is a no-op.
func (n *NoopCollector) MessageListed() {}
