package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/cockroachdb/errors"
)

func shellCompleter(ctx context.Context, p player) *readline.PrefixCompleter {
	trackIDs := func(string) []string {
		tracks, err := p.Queue(ctx)
		if err != nil {
			return nil
		}
		ids := make([]string, len(tracks))
		for i, t := range tracks {
			ids[i] = t.ID
		}
		return ids
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(commandNames))
	for _, name := range commandNames {
		switch name {
		case "play", "toggle", "license":
			items = append(items, readline.PcItem(name, readline.PcItemDynamic(trackIDs)))
		default:
			items = append(items, readline.PcItem(name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "beatdeck", "beatctl_history")
}

func runShell(ctx context.Context, p player) error {
	history := historyFile()
	if history != "" {
		_ = os.MkdirAll(filepath.Dir(history), 0o755)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "beatdeck> ",
		HistoryFile:     history,
		AutoComplete:    shellCompleter(ctx, p),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return errors.Wrap(err, "failed to start shell")
	}
	defer rl.Close()

	fmt.Fprintln(rl.Stdout(), "beatdeck shell. Type help for commands.")
	return shellLoop(ctx, p, rl.Readline, rl.Stdout())
}

// shellLoop reads lines until quit, EOF or ctx is done. Command errors are
// printed and do not end the loop.
func shellLoop(ctx context.Context, p player, readLine func() (string, error), w io.Writer) error {
	for ctx.Err() == nil {
		line, err := readLine()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if strings.TrimSpace(line) == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		err = execute(ctx, p, strings.Fields(line), w)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}
	return nil
}
