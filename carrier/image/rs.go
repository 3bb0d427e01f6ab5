package image

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// rsDataShards and rsParityShards size the erasure code protecting an
// embedded envelope against the scattered byte corruption that lossy
// recompression introduces. klauspost/reedsolomon reconstructs any shards
// explicitly marked missing from the survivors, but — unlike a classical
// Reed-Solomon decoder — has no notion of silently corrupted-but-present
// data: it needs to be told which shards are bad. rsEncode/rsDecode bridge
// that gap with a one-byte XOR checksum per shard, computed after encoding
// and stored outside the shards handed to Encode/Reconstruct: a shard whose
// checksum fails on decode is treated as erased. Keeping the checksum bytes
// out of the GF(256)-protected shard payload matters for parity shards —
// their bytes are a linear combination of every data shard's corresponding
// byte, so a checksum byte living inside that payload would never validate
// against the shard Encode actually produced.
const (
	rsDataShards   = 40
	rsParityShards = 50
)

// rsEncode protects msg, returning a self-describing blob: a 2-byte
// original-length field, a 2-byte shard-size field,
// (rsDataShards+rsParityShards) shards of shardSize payload bytes each, then
// one checksum byte per shard in the same order.
func rsEncode(msg []byte) ([]byte, error) {
	enc, err := reedsolomon.New(rsDataShards, rsParityShards)
	if err != nil {
		return nil, fmt.Errorf("constructing reed-solomon codec: %w", err)
	}

	shardSize := (len(msg) + rsDataShards - 1) / rsDataShards
	if shardSize == 0 {
		shardSize = 1
	}

	padded := make([]byte, shardSize*rsDataShards)
	copy(padded, msg)

	// Split returns the data shards followed by zeroed parity shards, ready
	// for Encode to fill in.
	shards, err := enc.Split(padded)
	if err != nil {
		return nil, fmt.Errorf("splitting shards: %w", err)
	}

	if err := enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("encoding parity shards: %w", err)
	}

	total := rsDataShards + rsParityShards
	out := make([]byte, 4, 4+total*shardSize+total)
	binary.BigEndian.PutUint16(out[0:2], uint16(len(msg)))
	binary.BigEndian.PutUint16(out[2:4], uint16(shardSize))
	for _, s := range shards {
		out = append(out, s...)
	}
	for _, s := range shards {
		out = append(out, checksum(s))
	}
	return out, nil
}

// rsDecode reverses rsEncode. It returns the recovered message and the
// number of shards that had to be reconstructed (0 means the embedded data
// survived intact).
func rsDecode(blob []byte) ([]byte, int, error) {
	if len(blob) < 4 {
		return nil, 0, fmt.Errorf("reed-solomon blob too short")
	}
	origLen := int(binary.BigEndian.Uint16(blob[0:2]))
	shardSize := int(binary.BigEndian.Uint16(blob[2:4]))
	if shardSize <= 0 {
		return nil, 0, fmt.Errorf("invalid shard size")
	}

	total := rsDataShards + rsParityShards
	if len(blob) != 4+total*shardSize+total {
		return nil, 0, fmt.Errorf("reed-solomon blob has unexpected length")
	}

	payload := blob[4 : 4+total*shardSize]
	checks := blob[4+total*shardSize : 4+total*shardSize+total]

	shards := make([][]byte, total)
	corrections := 0
	for i := 0; i < total; i++ {
		chunk := payload[i*shardSize : (i+1)*shardSize]
		if checksum(chunk) == checks[i] {
			cp := make([]byte, shardSize)
			copy(cp, chunk)
			shards[i] = cp
		} else {
			corrections++
			shards[i] = nil
		}
	}

	enc, err := reedsolomon.New(rsDataShards, rsParityShards)
	if err != nil {
		return nil, 0, fmt.Errorf("constructing reed-solomon codec: %w", err)
	}
	if err := enc.Reconstruct(shards); err != nil {
		return nil, 0, fmt.Errorf("reconstructing shards: %w", err)
	}

	out := make([]byte, 0, rsDataShards*shardSize)
	for i := 0; i < rsDataShards; i++ {
		out = append(out, shards[i]...)
	}
	if origLen > len(out) {
		return nil, 0, fmt.Errorf("invalid original length in reed-solomon blob")
	}
	return out[:origLen], corrections, nil
}

func checksum(b []byte) byte {
	var c byte
	for _, x := range b {
		c ^= x
	}
	return c
}
