package nodestore

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/trueeth/cw20-reflection/internal/storage/nodestore/compression"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// On-disk node layout, little-endian:
//
//	[0:4)   node type
//	[4:8)   ledger sequence
//	[8:16)  created-at, unix nanoseconds
//	[16:20) uncompressed data length
//	[20]    compression flag (0 raw, 1 compressed)
//	[21:)   payload
const nodeHeaderSize = 4 + 4 + 8 + 4 + 1

// Payloads below this size are stored raw; compressing them wastes cycles.
const minCompressSize = 128

// encodeNode serializes a node for storage, compressing the payload when it
// pays off.
func encodeNode(node *Node, compressor compression.Compressor, level int) ([]byte, error) {
	payload := []byte(node.Data)
	compressed := false

	if len(payload) >= minCompressSize && compressor.Name() != "none" {
		candidate, err := compressor.Compress(payload, level)
		if err != nil {
			return nil, fmt.Errorf("compress node %s: %w", node.Hash, err)
		}
		if len(candidate) < len(payload) {
			payload = candidate
			compressed = true
		}
	}

	buf := make([]byte, nodeHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(node.Type))
	binary.LittleEndian.PutUint32(buf[4:8], node.LedgerSeq)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(node.CreatedAt.UnixNano()))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(node.Data)))
	if compressed {
		buf[20] = 1
	}
	copy(buf[nodeHeaderSize:], payload)

	return buf, nil
}

// decodeNode deserializes a stored node.
func decodeNode(hash types.Hash256, data []byte, compressor compression.Compressor) (*Node, error) {
	if len(data) < nodeHeaderSize {
		return nil, fmt.Errorf("node %s: truncated record (%d bytes)", hash, len(data))
	}

	nodeType := NodeType(binary.LittleEndian.Uint32(data[0:4]))
	ledgerSeq := binary.LittleEndian.Uint32(data[4:8])
	createdNanos := int64(binary.LittleEndian.Uint64(data[8:16]))
	rawLen := int(binary.LittleEndian.Uint32(data[16:20]))
	compressed := data[20] == 1

	payload := data[nodeHeaderSize:]
	if compressed {
		decompressed, err := compressor.Decompress(payload, rawLen)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", hash, err)
		}
		payload = decompressed
	}
	if len(payload) != rawLen {
		return nil, fmt.Errorf("node %s: length mismatch, header says %d got %d", hash, rawLen, len(payload))
	}

	blob := make(types.Blob, len(payload))
	copy(blob, payload)

	return &Node{
		Type:      nodeType,
		Hash:      hash,
		Data:      blob,
		LedgerSeq: ledgerSeq,
		CreatedAt: time.Unix(0, createdNanos).UTC(),
	}, nil
}
