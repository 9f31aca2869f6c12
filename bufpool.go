package dyncodec

import (
	"bytes"
	"sync"
)

// bytesBufPool reuses buffers for encoding and for slurping streamed input.
// This reduces GC pressure by avoiding frequent allocations. We pool *bytes.Buffer
// because they are easily reset and resized.
var bytesBufPool = sync.Pool{
	New: func() any {
		// A 4KB default is chosen to avoid re-allocations for common payload sizes.
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// CHUNK_SIZE bounds the up-front allocation for a length-prefixed payload
// whose length cannot be checked against the remaining input.
const CHUNK_SIZE = 32 * 1024
