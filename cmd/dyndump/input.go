package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/oy3o/dyncodec"
)

// Compression names accepted by --compression.
const (
	compressionNone = "none"
	compressionZstd = "zstd"
	compressionLZ4  = "lz4"
)

// decompress wraps r according to name. The returned close func releases
// decoder state and never fails.
func decompress(r io.Reader, name string) (io.Reader, func(), error) {
	switch name {
	case compressionNone, "":
		return r, func() {}, nil
	case compressionZstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return decoder, decoder.Close, nil
	case compressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	}
	return nil, nil, usageErrorf("unknown compression %q (want none, zstd or lz4)", name)
}

// loadSchema reads a schema file. .cbor files hold MarshalSchema output;
// anything else is read as JSON with comments allowed.
func loadSchema(path string) (*dyncodec.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		return dyncodec.UnmarshalSchema(data)
	}
	return dyncodec.UnmarshalSchemaJSON(data)
}

// openInput returns stdin for "" and "-".
func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
