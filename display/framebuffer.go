package display

import (
	"math/bits"
	"sync"
)

// FrameBuffer is the 64x32 1-bit pixel plane shared between the execution
// engine and a frontend. The engine takes the write lock while composing a
// sprite or clearing; frontends take the read lock only long enough to copy
// the rows out for rendering.
//
// The zero value is a cleared framebuffer ready for use.
type FrameBuffer struct {
	mu   sync.RWMutex
	rows [HEIGHT]uint64
}

// Clear zeroes every pixel.
func (fb *FrameBuffer) Clear() {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	clear(fb.rows[:])
}

// Blit composes an 8-pixel-wide sprite onto the framebuffer via XOR, one
// byte per row, starting at (x, y). Coordinates wrap on both axes: rows
// beyond the bottom continue at the top, and a sprite crossing the right
// edge continues at column 0 of the same row.
//
// Returns true if any previously lit pixel was turned off by any row of
// the sprite.
func (fb *FrameBuffer) Blit(x, y uint8, sprite []byte) (collision bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	for i, line := range sprite {
		row := (int(y) + i) % HEIGHT
		old := fb.rows[row]
		// Rotate the byte so its leftmost pixel lands on bit 63-x.
		// Rotation, not shift, so the sprite wraps at the right edge.
		next := old ^ bits.RotateLeft64(uint64(line), -(int(x)+8))
		if old & ^next != 0 {
			collision = true
		}
		fb.rows[row] = next
	}

	return
}

// Rows returns a copy of all rows, taken under the read lock.
func (fb *FrameBuffer) Rows() (rows [HEIGHT]uint64) {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	rows = fb.rows
	return
}

// Pixel reports whether the pixel at (x, y) is lit. Coordinates wrap.
func (fb *FrameBuffer) Pixel(x, y int) bool {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	row := fb.rows[((y%HEIGHT)+HEIGHT)%HEIGHT]
	return row&(1<<((WIDTH-1)-(((x%WIDTH)+WIDTH)%WIDTH))) != 0
}
