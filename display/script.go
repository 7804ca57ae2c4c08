package display

// ScriptOp names a recorded frontend command.
type ScriptOp int

const (
	SCRIPT_REDRAW    = ScriptOp(0) // redraw
	SCRIPT_CLEAR     = ScriptOp(1) // clear
	SCRIPT_KEY_QUERY = ScriptOp(2) // key?
	SCRIPT_KEY_WAIT  = ScriptOp(3) // key-wait
	SCRIPT_AUDIO     = ScriptOp(4) // audio
)

// ScriptEntry is one recorded command with its operand.
type ScriptEntry struct {
	Op  ScriptOp
	Key uint8 // key operand for SCRIPT_KEY_QUERY
	On  bool  // audio state for SCRIPT_AUDIO
}

// Script is a headless frontend for tests. It records every command the
// engine issues and replays scripted key state and key-release responses.
//
// Setting Closed simulates a frontend whose event loop has exited.
type Script struct {
	Recorded []ScriptEntry // Commands recorded in order.
	Pressed  map[uint8]bool
	KeyQueue []uint8 // Queued WaitForKeyRelease responses.
	Closed   bool
}

var _ Frontend = (*Script)(nil)

// Reset drops all recorded commands and scripted state.
func (sc *Script) Reset() {
	sc.Recorded = nil
	sc.Pressed = nil
	sc.KeyQueue = nil
	sc.Closed = false
}

// PressKeys queues key-release responses and marks the keys as held.
func (sc *Script) PressKeys(keys ...uint8) {
	if sc.Pressed == nil {
		sc.Pressed = make(map[uint8]bool, len(keys))
	}
	for _, key := range keys {
		sc.Pressed[key] = true
		sc.KeyQueue = append(sc.KeyQueue, key)
	}
}

// Redraws counts the recorded redraw commands.
func (sc *Script) Redraws() (count int) {
	for _, entry := range sc.Recorded {
		if entry.Op == SCRIPT_REDRAW {
			count++
		}
	}
	return
}

func (sc *Script) record(entry ScriptEntry) {
	sc.Recorded = append(sc.Recorded, entry)
}

func (sc *Script) RequestRedraw() {
	sc.record(ScriptEntry{Op: SCRIPT_REDRAW})
}

func (sc *Script) Clear() {
	sc.record(ScriptEntry{Op: SCRIPT_CLEAR})
}

func (sc *Script) IsKeyPressed(key uint8) bool {
	sc.record(ScriptEntry{Op: SCRIPT_KEY_QUERY, Key: key})
	if sc.Closed {
		return false
	}
	return sc.Pressed[key]
}

func (sc *Script) WaitForKeyRelease() (key uint8, err error) {
	sc.record(ScriptEntry{Op: SCRIPT_KEY_WAIT})
	if sc.Closed || len(sc.KeyQueue) == 0 {
		err = ErrFrontendClosed
		return
	}
	key = sc.KeyQueue[0]
	sc.KeyQueue = sc.KeyQueue[1:]
	return
}

func (sc *Script) SetAudioEnabled(enabled bool) {
	sc.record(ScriptEntry{Op: SCRIPT_AUDIO, On: enabled})
}
