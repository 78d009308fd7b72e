package session

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// zstdMagic opens every zstd frame
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(64<<20))
)

// Encode serializes a snapshot, optionally zstd-compressed
func Encode(snapshot types.SessionSnapshot, compress bool) ([]byte, error) {
	snapshot.Version = types.SnapshotVersion
	data, err := sonic.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if !compress {
		return data, nil
	}
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decode parses a snapshot written by Encode. Compression is detected from
// the payload, so either form can be read regardless of current settings.
func Decode(data []byte) (types.SessionSnapshot, error) {
	var snapshot types.SessionSnapshot

	if bytes.HasPrefix(data, zstdMagic) {
		plain, err := decoder.DecodeAll(data, nil)
		if err != nil {
			return snapshot, fmt.Errorf("failed to decompress session: %w", err)
		}
		data = plain
	}
	if err := sonic.Unmarshal(data, &snapshot); err != nil {
		return snapshot, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if snapshot.Version > types.SnapshotVersion {
		return snapshot, fmt.Errorf("session version %d is newer than supported %d", snapshot.Version, types.SnapshotVersion)
	}
	return snapshot, nil
}
