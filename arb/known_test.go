package arb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestKnownTypes(t *testing.T) {
	t.Run("UUIDs are version 4", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			u := UUID().Draw(rt, "uuid")
			assert.Equal(rt, 4, int(u.Version()))
		})
	})

	t.Run("Times stay in range and UTC", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			ts := Time().Draw(rt, "time")
			assert.Equal(rt, time.UTC, ts.Location())
			assert.False(rt, ts.Before(time.Unix(0, 0)))
			assert.False(rt, ts.After(time.Unix(maxUnix+1, 0)))
		})
	})
}
