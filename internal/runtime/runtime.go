// Package runtime wires the connection manager, event bus, state machine,
// tick driver, logging bridge, input reader and view into the cooperative
// concurrent scheduler. Grounded on
// server/main.go's signal.Notify + cancel() graceful-shutdown shape,
// generalized with an errgroup and a multierror join because here multiple
// goroutines can fail independently and all their errors matter at exit.
package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/blockdoth/chatger-tui/internal/chatstate"
	"github.com/blockdoth/chatger-tui/internal/config"
	"github.com/blockdoth/chatger-tui/internal/events"
	"github.com/blockdoth/chatger-tui/internal/input"
	"github.com/blockdoth/chatger-tui/internal/logbridge"
	"github.com/blockdoth/chatger-tui/internal/netconn"
	"github.com/blockdoth/chatger-tui/internal/ticker"
	"github.com/blockdoth/chatger-tui/internal/tuiview"
)

// Run builds the full dependency graph and executes the main loop until the
// user quits or an unrecoverable setup error occurs.
func Run(ctx context.Context, cfg config.AppConfig) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	defer screen.Fini()
	screen.EnableFocus()

	bus := events.NewBus()
	conn := netconn.New(bus)
	machine := chatstate.New(conn, bus)
	view := tuiview.New(screen)
	reader := input.New(screen, bus, machine)
	bridge := logbridge.Install(bus)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	logStop := make(chan struct{})
	g.Go(func() error {
		bridge.Run(logStop)
		return nil
	})

	g.Go(func() error {
		reader.Run()
		return nil
	})

	g.Go(func() error {
		ticker.Run(gctx, machine, conn, bus)
		return nil
	})

	if cfg.AutoLogin {
		machine.Login.Username = cfg.Username
		machine.Login.Password = cfg.Password
		machine.Login.ServerAddress = fmt.Sprintf("%s:%d", cfg.Address, cfg.Port)
		machine.Login.EnableTLS = cfg.EnableTLS
		bus.TrySend(events.New(events.LoginRequest))
	}

	var result error
	mainLoopErr := make(chan error, 1)
	g.Go(func() error {
		mainLoopErr <- mainLoop(gctx, machine, bus, view)
		return nil
	})

	select {
	case <-gctx.Done():
	case err := <-mainLoopErr:
		result = err
	}

	cancel()
	reader.Stop()
	close(logStop)
	conn.Disconnect()

	if err := g.Wait(); err != nil {
		result = joinErr(result, err)
	}
	return result
}

func mainLoop(ctx context.Context, m *chatstate.Machine, bus *events.Bus, view *tuiview.View) error {
	render := time.NewTicker(33 * time.Millisecond)
	defer render.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-bus.Recv():
			m.Update(ctx, ev)
			if m.Global.ShouldQuit {
				return nil
			}
		case <-render.C:
			view.Draw(m)
		}
	}
}

func joinErr(a, b error) error {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	me := &multierror.Error{}
	me = multierror.Append(me, a, b)
	return me
}
