package container

import (
	"github.com/joshuapare/bundlekit/codec"
	"github.com/joshuapare/bundlekit/pkg/types"
)

// Chunk is one planned slice of the flattened payload.
type Chunk struct {
	Offset int64
	Size   int64
}

// PlanChunks splits total bytes into the chunks an emitter compresses.
// None and LZMA payloads form a single chunk; LZ4 and LZ4HC payloads are cut
// into blockSize pieces with a shorter tail. An empty payload still yields
// one empty chunk so the table always describes the payload.
func PlanChunks(total int64, blockSize int, kind codec.Kind) ([]Chunk, error) {
	if total < 0 {
		return nil, types.Malformed("negative payload size %d", total)
	}
	if !kind.Supported() {
		return nil, types.Unsupported("compression kind %s is not supported", kind)
	}
	if !kind.Chunked() || total == 0 {
		return []Chunk{{Offset: 0, Size: total}}, nil
	}
	if blockSize <= 0 {
		return nil, types.Unsupported("block size %d must be positive", blockSize)
	}

	bs := int64(blockSize)
	n := (total + bs - 1) / bs
	chunks := make([]Chunk, 0, n)
	for off := int64(0); off < total; off += bs {
		size := bs
		if rest := total - off; rest < size {
			size = rest
		}
		chunks = append(chunks, Chunk{Offset: off, Size: size})
	}
	return chunks, nil
}
