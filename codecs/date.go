package codecs

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/glimte/protolite-go/contracts"
)

// DateTypeName is the declared type name DateCodec is registered under
const DateTypeName = "Date"

const (
	dateSize      = 8
	dateValueSize = 6
	maxDateMillis = int64(1)<<(dateValueSize*8) - 1
)

// DateCodec stores a time.Time as Unix milliseconds in the low six bytes of
// an eight byte little-endian buffer. Decoded values are in UTC.
type DateCodec struct{}

func (DateCodec) Encode(v any) ([]byte, error) {
	var t time.Time
	switch val := v.(type) {
	case time.Time:
		t = val
	case *time.Time:
		if val == nil {
			return nil, fmt.Errorf("%w: date: nil *time.Time", contracts.ErrCodecFailed)
		}
		t = *val
	default:
		return nil, fmt.Errorf("%w: date: expected time.Time, got %T", contracts.ErrCodecFailed, v)
	}

	ms := t.UnixMilli()
	if ms < 0 || ms > maxDateMillis {
		return nil, fmt.Errorf("%w: date: %s out of range", contracts.ErrCodecFailed, t.Format(time.RFC3339))
	}

	buf := make([]byte, dateSize)
	binary.LittleEndian.PutUint64(buf, uint64(ms))
	return buf, nil
}

func (DateCodec) Decode(data []byte) (any, error) {
	if len(data) < dateValueSize {
		return nil, fmt.Errorf("%w: date: need %d bytes, got %d", contracts.ErrCodecFailed, dateValueSize, len(data))
	}

	buf := make([]byte, dateSize)
	copy(buf, data[:dateValueSize])
	ms := int64(binary.LittleEndian.Uint64(buf))
	return time.UnixMilli(ms).UTC(), nil
}
