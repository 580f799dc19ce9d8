// Package logbridge installs a process-wide logger that captures every
// formatted record into a bounded channel and forwards it to the event bus
// as a Log event, so log lines render inside the TUI's log pane instead of
// fighting the screen for the terminal. Uses the same
// log.Printf("[component] ...") bracket-tag convention as the rest of the
// module — this package doesn't change what gets logged, only where the
// formatted line ends up.
package logbridge

import (
	"log"
	"os"

	"github.com/blockdoth/chatger-tui/internal/events"
)

const drainCapacity = 64

// Bridge captures log.Logger output and republishes each line as a Log event.
type Bridge struct {
	lines chan string
	bus   *events.Bus
}

// Install redirects the standard logger's output through a new Bridge and
// returns it. Call Run in a goroutine to start draining.
func Install(bus *events.Bus) *Bridge {
	b := &Bridge{lines: make(chan string, drainCapacity), bus: bus}
	log.SetOutput(writerFunc(b.capture))
	log.SetFlags(log.LstdFlags)
	return b
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func (b *Bridge) capture(p []byte) (int, error) {
	line := string(p)
	select {
	case b.lines <- line:
	default:
		// Channel full: last-resort fallback to stderr.
		os.Stderr.WriteString(line)
	}
	return len(p), nil
}

// Run drains captured lines onto the bus as Log events until stop is closed.
func (b *Bridge) Run(stop <-chan struct{}) {
	for {
		select {
		case line := <-b.lines:
			e := events.New(events.Log)
			e.Str = line
			b.bus.TrySend(e)
		case <-stop:
			return
		}
	}
}
