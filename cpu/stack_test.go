package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack(t *testing.T) {
	assert := assert.New(t)

	var s Stack

	assert.True(s.Empty())
	assert.False(s.Full())

	_, ok := s.Pop()
	assert.False(ok)

	assert.True(s.Push(0x200))
	assert.True(s.Push(0x300))
	assert.Equal(2, s.Depth())

	value, ok := s.Peek()
	assert.True(ok)
	assert.Equal(uint16(0x300), value)

	value, ok = s.Pop()
	assert.True(ok)
	assert.Equal(uint16(0x300), value)

	value, ok = s.Pop()
	assert.True(ok)
	assert.Equal(uint16(0x200), value)

	assert.True(s.Empty())
}

func TestStackLimit(t *testing.T) {
	assert := assert.New(t)

	var s Stack

	for n := range STACK_LIMIT {
		assert.True(s.Push(uint16(n)))
	}
	assert.True(s.Full())
	assert.False(s.Push(0xFFF))
	assert.Equal(STACK_LIMIT, s.Depth())

	s.Reset()
	assert.True(s.Empty())
}
