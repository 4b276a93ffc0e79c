//go:build linux

package keys

import (
	"bytes"
	"context"
	"encoding/binary"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devicesListing = `I: Bus=0019 Vendor=0000 Product=0001 Version=0000
N: Name="Power Button"
H: Handlers=kbd event0
B: EV=3

I: Bus=0011 Vendor=0001 Product=0001 Version=ab41
N: Name="AT Translated Set 2 keyboard"
H: Handlers=sysrq kbd leds event3
B: EV=120013

I: Bus=0003 Vendor=046d Product=c52b Version=0111
N: Name="Mouse"
H: Handlers=mouse0 event5
B: EV=17
`

func TestFindKeyboard(t *testing.T) {
	assert.Equal(t, "/dev/input/event3", findKeyboard(strings.NewReader(devicesListing)))
	assert.Empty(t, findKeyboard(strings.NewReader("N: Name=\"Mouse\"\nH: Handlers=mouse0 event5\nB: EV=17\n")))
}

func TestCountable(t *testing.T) {
	assert.True(t, countable(30)) // a
	assert.True(t, countable(keySpace))
	assert.True(t, countable(keyEnter))
	assert.False(t, countable(42)) // left shift
	assert.False(t, countable(1))  // escape
	assert.False(t, countable(59)) // F1
}

func TestReadEvents(t *testing.T) {
	var buf bytes.Buffer
	write := func(typ, code uint16, value int32, sec int64) {
		require.NoError(t, binary.Write(&buf, binary.NativeEndian, inputEvent{Sec: sec, Type: typ, Code: code, Value: value}))
	}
	write(evKey, 30, valuePress, 100) // counted
	write(evKey, 30, 0, 100)          // release
	write(evKey, 42, valuePress, 101) // shift
	write(0x00, 0, 0, 101)            // sync
	write(evKey, keySpace, valuePress, 102)
	write(evKey, 30, 2, 103) // autorepeat

	var got []time.Time
	err := readEvents(context.Background(), &buf, func(at time.Time) { got = append(got, at) })
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(100), got[0].Unix())
	assert.Equal(t, int64(102), got[1].Unix())
}

func TestDevice_Explicit(t *testing.T) {
	dev, err := New("/dev/input/event7").Device()
	require.NoError(t, err)
	assert.Equal(t, "/dev/input/event7", dev)
}
