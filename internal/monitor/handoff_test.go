package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMailbox_KeepsLatest(t *testing.T) {
	m := NewMailbox[int]()

	_, ok := m.Latest()
	assert.False(t, ok)

	m.Put(1)
	m.Put(2)
	v, ok := m.Latest()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestMailbox_PutNeverBlocks(t *testing.T) {
	m := NewMailbox[string]()
	for i := 0; i < 100; i++ {
		m.Put("x")
	}

	select {
	case <-m.Ready():
	default:
		t.Fatal("expected a ready signal")
	}
	select {
	case <-m.Ready():
		t.Fatal("puts should collapse into one signal")
	default:
	}
}
