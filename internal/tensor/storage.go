package tensor

// Storage is a single backend allocation holding tensor data.
// Handles own exactly one storage and free it when their reference
// count reaches zero.
type Storage interface {
	// Bytes returns the raw backing memory. The slice stays valid until
	// Free is called.
	Bytes() []byte

	// Free returns the memory to its allocator. Calling Free more than
	// once is undefined; Handle guarantees a single call.
	Free()
}

// Allocator hands out storage for new handles. Each backend provides
// one, so allocation policy (pooling, accounting, device memory) stays
// a backend concern.
type Allocator interface {
	// Allocate returns zeroed storage of the given byte size.
	Allocate(nbytes int) Storage
}
