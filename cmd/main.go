package main

import (
	"context"
	"fmt"
	"io"
	"lan-chat/domain"
	"lan-chat/errors"
	"lan-chat/internal"
	"lan-chat/runtime"
	"lan-chat/ui"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

// Exit codes to provide meaningful status to the shell.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const maxUsernameLength = 20

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lan-chat terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the session and drives the prompt until the user quits or a signal arrives.
// Deferred cleanup (leaving the room, closing sockets) always runs before exit.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Prompt
	var controller *runtime.SessionController
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     config.HistoryFile,
		AutoComplete:    newCompleter(func() *runtime.SessionController { return controller }),
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
	})
	if err != nil {
		return exitRuntime, fmt.Errorf("readline init: %w", err)
	}
	defer func() { _ = rl.Close() }()

	if config.Username == "" {
		if config.Username, err = askUsername(rl); err != nil {
			return exitOK, nil
		}
	}

	// 4. Session
	controller, err = runtime.NewSessionController(log, config.Session())
	if err != nil {
		return exitConfig, err
	}
	out := rl.Stdout()
	if err := controller.Start(ctx); err != nil {
		_, _ = fmt.Fprintln(out, ui.Notice("Room discovery is off (%v). You can still /join <pin> <ip>.", err))
	}
	defer controller.Stop()

	_, _ = fmt.Fprintln(out, ui.Header(controller.State(), controller.Username()))
	_, _ = fmt.Fprintln(out, ui.HelpText())
	rl.SetPrompt(prompt(controller.State()))

	// 5. Foreground tick
	go tick(ctx, controller, rl, config.TickInterval)

	// 6. Input loop
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				if line == "" {
					return
				}
				continue
			}
			if err != nil {
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if quit := handle(ctx, controller, out, line); quit {
				return exitOK, nil
			}
			rl.SetPrompt(prompt(controller.State()))
		}
	}
}

func askUsername(rl *readline.Instance) (string, error) {
	rl.SetPrompt("username: ")
	for {
		line, err := rl.Readline()
		if err != nil {
			return "", err
		}
		name := strings.TrimSpace(line)
		if name != "" && len(name) <= maxUsernameLength {
			return name, nil
		}
		_, _ = fmt.Fprintln(rl.Stdout(), ui.Notice("Pick a name of 1 to %d characters.", maxUsernameLength))
	}
}

func handle(ctx context.Context, c *runtime.SessionController, out io.Writer, line string) bool {
	cmd, err := ui.ParseCommand(line)
	if err != nil {
		_, _ = fmt.Fprintln(out, ui.Error(err))
		return false
	}

	switch cmd.Kind {
	case ui.CmdSend:
		if strings.TrimSpace(cmd.Text) == "" {
			return false
		}
		if err := c.SendMessage(cmd.Text); err != nil {
			_, _ = fmt.Fprintln(out, ui.Error(err))
			return false
		}
		if sent, ok := lo.Last(c.History()); ok {
			_, _ = fmt.Fprintln(out, ui.FormatMessage(sent, c.Username()))
		}
	case ui.CmdCreate:
		roomID, err := c.CreateRoom(ctx)
		if err != nil {
			_, _ = fmt.Fprintln(out, ui.Error(err))
			return false
		}
		_, _ = fmt.Fprintln(out, ui.Notice("Room %s is open. Share the PIN with people nearby.", roomID))
		_, _ = fmt.Fprintln(out, ui.Header(c.State(), c.Username()))
	case ui.CmdJoin:
		if err := c.JoinRoom(ctx, cmd.PIN, cmd.Address); err != nil {
			_, _ = fmt.Fprintln(out, ui.Error(err))
			return false
		}
		_, _ = fmt.Fprintln(out, ui.Header(c.State(), c.Username()))
	case ui.CmdRooms:
		ui.RenderRooms(out, c.Rooms(), time.Now())
	case ui.CmdLeave:
		if err := c.LeaveRoom(); err != nil {
			_, _ = fmt.Fprintln(out, ui.Error(err))
			return false
		}
		_, _ = fmt.Fprintln(out, ui.Notice("You left the room."))
	case ui.CmdStats:
		ui.RenderStats(out, c.Stats())
	case ui.CmdHelp:
		_, _ = fmt.Fprintln(out, ui.HelpText())
	case ui.CmdQuit:
		return true
	}
	return false
}

// tick merges received messages on a fixed cadence and prints them.
func tick(ctx context.Context, c *runtime.SessionController, rl *readline.Instance, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	out := rl.Stdout()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := c.Tick()
			for _, msg := range res.New {
				_, _ = fmt.Fprintln(out, ui.FormatMessage(msg, c.Username()))
			}
			if res.RoomLost {
				_, _ = fmt.Fprintln(out, ui.Notice("The room was closed by its host."))
				rl.SetPrompt(prompt(c.State()))
			}
		}
	}
}

func prompt(state domain.SessionState) string {
	if !state.InRoom() {
		return "> "
	}
	return fmt.Sprintf("[%s]> ", state.RoomID)
}

func newCompleter(controller func() *runtime.SessionController) *readline.PrefixCompleter {
	pins := func(string) []string {
		c := controller()
		if c == nil {
			return nil
		}
		return lo.Map(c.Rooms(), func(r domain.PeerRecord, _ int) string { return r.RoomID.String() })
	}
	items := lo.Map(ui.CommandNames(), func(name string, _ int) readline.PrefixCompleterInterface {
		if name == "/join" {
			return readline.PcItem(name, readline.PcItemDynamic(pins))
		}
		return readline.PcItem(name)
	})
	return readline.NewPrefixCompleter(items...)
}
