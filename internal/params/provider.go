package params

// Provider defines the interface for parameter-set data sources.
type Provider interface {
	// Load the complete catchment parameter hierarchy
	Load() (*Catchment, error)

	// IsReadOnly reports whether the backing store can be written through
	// this provider. The core only ever reads.
	IsReadOnly() bool

	Close() error
}
