package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ergochat/readline"

	helio "github.com/itsbrex/helio-workstation"
	"github.com/itsbrex/helio-workstation/utils"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),

	readline.PcItem("new"),
	readline.PcItem("set"),
	readline.PcItem("event"),
	readline.PcItem("note"),
	readline.PcItem("clip"),

	readline.PcItem("save"),
	readline.PcItem("checkout"),
	readline.PcItem("diff"),
	readline.PcItem("show"),
	readline.PcItem("list"),

	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func main() {
	dir := flag.String("dir", ".helio-vcs", "snapshot store directory")
	src := flag.Uint64("src", 1, "writer id used in value stamps")
	flag.Parse()

	logger := utils.NewDefaultLogger(slog.LevelWarn)
	store, err := helio.OpenStore(*dir, helio.StoreOptions{Src: *src, Logger: logger})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer store.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "♪ ",
		HistoryFile:     ".helio_vcs_log.txt",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer rl.Close()
	rl.CaptureExitSignal()

	session := newSession(store, logger)
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]
		if cmd == "exit" || cmd == "quit" {
			break
		}
		if err := session.run(cmd, args); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
