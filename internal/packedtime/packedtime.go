// Package packedtime converts the controller's YYMMDDHHmm UTC stamps to and from epoch seconds.
//
// Two-digit years follow time.Parse: 69-99 map to 1969-1999 and 00-68 to 2000-2068.
// Instants outside that range cannot be represented and are not handled.
package packedtime

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the Go reference layout for a packed stamp.
const Layout = "0601021504"

// Width is the number of digits in a packed stamp.
const Width = len(Layout)

var errBadWidth = errors.New("packed stamp must be 10 digits")

// now is swapped in tests.
var now = time.Now

// Parse strictly decodes a packed stamp.
func Parse(packed string) (int64, error) {
	if len(packed) != Width {
		return 0, fmt.Errorf("%w: got %q", errBadWidth, packed)
	}
	for i := 0; i < len(packed); i++ {
		if packed[i] < '0' || packed[i] > '9' {
			return 0, fmt.Errorf("packed stamp %q: non-digit at %d", packed, i)
		}
	}
	t, err := time.ParseInLocation(Layout, packed, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("packed stamp %q: %w", packed, err)
	}
	return t.Unix(), nil
}

// Decode returns the epoch seconds for packed, or the current time when it is invalid
// so that one corrupt record never stops ingestion.
func Decode(packed string) int64 {
	sec, err := Parse(packed)
	if err != nil {
		return now().Unix()
	}
	return sec
}

// Encode formats sec as a packed stamp. Seconds are truncated.
func Encode(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(Layout)
}
