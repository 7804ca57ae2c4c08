package display

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// How long a key counts as held after its byte arrives. Terminals report
// presses but not releases, so key-down state decays after this window.
const KEY_HOLD = 200 * time.Millisecond

// framePeriod throttles redraws to the refresh rate.
const framePeriod = time.Second / REFRESH_HZ

type termCommand int

const (
	CMD_DRAW       = termCommand(0)
	CMD_CLEAR      = termCommand(1)
	CMD_IS_PRESSED = termCommand(2)
	CMD_WAIT_KEY   = termCommand(3)
	CMD_AUDIO      = termCommand(4)
)

type command struct {
	kind  termCommand
	key   uint8
	on    bool
	reply chan uint8
}

// Terminal renders the framebuffer to an ANSI terminal and maps raw-mode
// keyboard input onto the hex keypad. It owns an event-loop goroutine;
// the Frontend methods only exchange commands and responses with it.
type Terminal struct {
	Input  *os.File  // Keyboard source, default os.Stdin.
	Output io.Writer // Rendering target, default os.Stdout.
	Frame  *FrameBuffer

	commands chan command
	keys     chan uint8
	quit     chan struct{}
	done     chan struct{}
	stop     sync.Once

	original unix.Termios
	rawMode  bool
}

var _ Frontend = (*Terminal)(nil)

// NewTerminal creates a terminal frontend reading the given framebuffer.
func NewTerminal(frame *FrameBuffer) *Terminal {
	return &Terminal{
		Input:    os.Stdin,
		Output:   os.Stdout,
		Frame:    frame,
		commands: make(chan command, 8),
		keys:     make(chan uint8, 8),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start switches the input terminal to raw mode and spawns the event loop
// and keyboard poller.
func (term *Terminal) Start() (err error) {
	err = term.enableRawMode()
	if err != nil {
		return
	}

	// Hide the cursor and start from a clean screen.
	io.WriteString(term.Output, "\x1b[?25l\x1b[2J\x1b[H")

	go term.pollKeyboard()
	go term.loop()

	return
}

// Stop shuts down the event loop and restores the terminal state.
// Safe to call more than once.
func (term *Terminal) Stop() {
	term.stop.Do(func() {
		close(term.quit)
		<-term.done
		io.WriteString(term.Output, "\x1b[?25h\r\n")
		term.disableRawMode()
	})
}

// Done is closed once the event loop has exited.
func (term *Terminal) Done() <-chan struct{} {
	return term.done
}

func (term *Terminal) enableRawMode() (err error) {
	err = termios.Tcgetattr(term.Input.Fd(), &term.original)
	if err != nil {
		return
	}
	raw := term.original
	raw.Lflag &^= unix.ICANON | unix.ECHO
	err = termios.Tcsetattr(term.Input.Fd(), termios.TCSANOW, &raw)
	if err != nil {
		return
	}
	term.rawMode = true
	return
}

func (term *Terminal) disableRawMode() {
	if term.rawMode {
		termios.Tcsetattr(term.Input.Fd(), termios.TCSANOW, &term.original)
		term.rawMode = false
	}
}

// pollKeyboard reads raw bytes from the input and feeds mapped keypad
// values into the event loop. Ctrl-C and ESC shut the frontend down.
func (term *Terminal) pollKeyboard() {
	buf := make([]byte, 1)
	for {
		n, err := term.Input.Read(buf)
		if err != nil || n == 0 {
			return
		}

		if buf[0] == 0x03 || buf[0] == 0x1b {
			go term.Stop()
			return
		}

		key, ok := MapKey(buf[0])
		if !ok {
			continue
		}

		select {
		case term.keys <- key:
		case <-term.quit:
			return
		}
	}
}

// loop is the frontend event loop. It is the only goroutine that renders
// or answers key queries, mirroring the single-owner model of the engine
// side.
func (term *Terminal) loop() {
	defer close(term.done)

	var lastPress [16]time.Time
	var waiters []chan uint8

	for {
		select {
		case <-term.quit:
			return

		case key := <-term.keys:
			lastPress[key] = time.Now()
			// A fresh byte is the closest a terminal gets to a
			// release event; answer every pending wait with it.
			for _, reply := range waiters {
				reply <- key
			}
			waiters = nil

		case cmd := <-term.commands:
			switch cmd.kind {
			case CMD_DRAW:
				term.render()
			case CMD_CLEAR:
				io.WriteString(term.Output, "\x1b[2J\x1b[H")
			case CMD_IS_PRESSED:
				key := cmd.key & 0xF
				var pressed uint8
				if !lastPress[key].IsZero() && time.Since(lastPress[key]) < KEY_HOLD {
					pressed = 1
				}
				cmd.reply <- pressed
			case CMD_WAIT_KEY:
				waiters = append(waiters, cmd.reply)
			case CMD_AUDIO:
				if cmd.on {
					// Terminals have no sustained tone; ring the bell
					// at the start of each beep instead.
					io.WriteString(term.Output, "\a")
				}
			}
		}
	}
}

// render copies the framebuffer rows out under the read lock and repaints
// the whole screen, two character cells per pixel.
func (term *Terminal) render() {
	rows := term.Frame.Rows()

	var out strings.Builder
	out.WriteString("\x1b[H")
	for _, row := range rows {
		for x := 0; x < WIDTH; x++ {
			if row&(1<<((WIDTH-1)-x)) != 0 {
				out.WriteString("██")
			} else {
				out.WriteString("  ")
			}
		}
		out.WriteString("\r\n")
	}

	io.WriteString(term.Output, out.String())
}

func (term *Terminal) send(cmd command) (ok bool) {
	select {
	case term.commands <- cmd:
		ok = true
	case <-term.done:
	}
	return
}

func (term *Terminal) RequestRedraw() {
	term.send(command{kind: CMD_DRAW})
	// Cap effective engine throughput to the refresh rate.
	time.Sleep(framePeriod)
}

func (term *Terminal) Clear() {
	term.send(command{kind: CMD_CLEAR})
}

func (term *Terminal) IsKeyPressed(key uint8) bool {
	reply := make(chan uint8, 1)
	if !term.send(command{kind: CMD_IS_PRESSED, key: key, reply: reply}) {
		// Dead frontend: report not pressed.
		return false
	}
	select {
	case pressed := <-reply:
		return pressed != 0
	case <-term.done:
		return false
	}
}

func (term *Terminal) WaitForKeyRelease() (key uint8, err error) {
	reply := make(chan uint8, 1)
	if !term.send(command{kind: CMD_WAIT_KEY, reply: reply}) {
		err = ErrFrontendClosed
		return
	}
	select {
	case key = <-reply:
	case <-term.done:
		err = ErrFrontendClosed
	}
	return
}

func (term *Terminal) SetAudioEnabled(enabled bool) {
	term.send(command{kind: CMD_AUDIO, on: enabled})
}
