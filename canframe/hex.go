package canframe

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseHex converts a frame-data cell into bytes. Both space-separated
// ("0B B8 FF 07") and continuous ("0BB8FF07") hex pairs are accepted.
func ParseHex(s string) ([]byte, error) {
	cleaned := strings.NewReplacer(" ", "", "0x", "", "0X", "").Replace(strings.TrimSpace(s))
	if len(cleaned)%2 != 0 {
		return nil, errors.Errorf("hex data has odd length %d", len(cleaned))
	}
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, errors.Wrap(err, "invalid hex data")
	}
	return data, nil
}

// FormatHex renders bytes as space-separated uppercase hex pairs, the format
// used by recordings and the dashboard log.
func FormatHex(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}

// FormatFrameID renders a numeric bus ID in the canonical hex form used by
// recordings ("0x18C4D2D0").
func FormatFrameID(id uint32) string {
	return fmt.Sprintf("0x%08X", id)
}

// ParseFrameID converts a hex frame identifier such as "0x18C4D2D0" to its
// numeric bus ID.
func ParseFrameID(id string) (uint32, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(id, "0x"), "0X")
	if trimmed == "" {
		return 0, errors.Errorf("empty frame ID")
	}
	v, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid frame ID %q", id)
	}
	return uint32(v), nil
}
