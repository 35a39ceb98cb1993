package arb

import (
	"time"

	"github.com/google/uuid"
	"pgregory.net/rapid"
)

// maxUnix is 2100-01-01T00:00:00Z.
const maxUnix = 4102444800

// Complex64 returns a generator of complex64 values.
func Complex64() *rapid.Generator[complex64] {
	return rapid.Custom(func(t *rapid.T) complex64 {
		return complex(rapid.Float32().Draw(t, "real"), rapid.Float32().Draw(t, "imag"))
	})
}

// Complex128 returns a generator of complex128 values.
func Complex128() *rapid.Generator[complex128] {
	return rapid.Custom(func(t *rapid.T) complex128 {
		return complex(rapid.Float64().Draw(t, "real"), rapid.Float64().Draw(t, "imag"))
	})
}

// Time returns a generator of UTC instants between 1970 and 2100.
func Time() *rapid.Generator[time.Time] {
	return rapid.Custom(func(t *rapid.T) time.Time {
		sec := rapid.Int64Range(0, maxUnix).Draw(t, "sec")
		nsec := rapid.Int64Range(0, int64(time.Second)-1).Draw(t, "nsec")
		return time.Unix(sec, nsec).UTC()
	})
}

// Duration returns a generator of time.Duration values.
func Duration() *rapid.Generator[time.Duration] {
	return rapid.Map(rapid.Int64(), func(n int64) time.Duration {
		return time.Duration(n)
	})
}

// UUID returns a generator of version 4 UUIDs.
func UUID() *rapid.Generator[uuid.UUID] {
	return rapid.Custom(func(t *rapid.T) uuid.UUID {
		b := rapid.SliceOfN(rapid.Byte(), 16, 16).Draw(t, "bytes")
		b[6] = (b[6] & 0x0f) | 0x40
		b[8] = (b[8] & 0x3f) | 0x80
		return uuid.Must(uuid.FromBytes(b))
	})
}
