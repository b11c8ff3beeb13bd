// Command bufpoolctl is an interactive shell over a single buffer
// pool manager and backing file, for exercising and inspecting the
// pool's behavior by hand.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/haledev/pagepool/internal/bufferpool"
	"github.com/haledev/pagepool/internal/config"
	"github.com/haledev/pagepool/internal/storage"
)

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".bufpoolctl_history"
	}
	return home + "/.bufpoolctl_history"
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		histPath   = flag.String("history", defaultHistoryPath(), "history file path")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg.Log.Level)

	if err := os.MkdirAll(cfg.Storage.Dir, storage.FileMode0755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}

	file, err := storage.OpenLocalFile(cfg.Storage.Dir, cfg.Storage.Base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open storage: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = file.Close() }()

	mgr := bufferpool.NewManager(cfg.Pool.Frames)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "bufpool> ",
		HistoryFile:     *histPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	fmt.Printf("bufpoolctl: %d frames over %s\n", cfg.Pool.Frames, file.Filename())
	fmt.Println("type \\help for help")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			fmt.Println("^C")
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := dispatch(mgr, file, line); err != nil {
			if err == errQuit {
				return
			}
			fmt.Printf("error: %v\n", err)
		}
	}
}

var errQuit = fmt.Errorf("quit")

func dispatch(mgr *bufferpool.Manager, file storage.FileHandle, line string) error {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "\\q", "quit", "exit":
		return errQuit

	case "\\help":
		fmt.Println(`commands:
  read <page>             pin and print the first bytes of a page
  unpin <page> [dirty]    unpin a page, optionally marking it dirty
  alloc                   allocate a new page, pinned
  flush                   flush every resident page of the file
  dispose <page>          dispose of a page
  print                   print frame table and valid frame count
  \help                   show this help
  \q | quit | exit        quit`)
		return nil

	case "read":
		page, err := parsePageArg(args)
		if err != nil {
			return err
		}
		p, err := mgr.ReadPage(file, page)
		if err != nil {
			return err
		}
		fmt.Printf("page %d: % x...\n", p.Number, p.Data[:16])
		return nil

	case "unpin":
		if len(args) == 0 {
			return fmt.Errorf("usage: unpin <page> [dirty]")
		}
		page, err := parsePageArg(args)
		if err != nil {
			return err
		}
		dirty := len(args) > 1 && args[1] == "dirty"
		return mgr.UnpinPage(file, page, dirty)

	case "alloc":
		page, _, err := mgr.AllocatePage(file)
		if err != nil {
			return err
		}
		fmt.Printf("allocated page %d\n", page)
		return nil

	case "flush":
		return mgr.FlushFile(file)

	case "dispose":
		page, err := parsePageArg(args)
		if err != nil {
			return err
		}
		return mgr.DisposePage(file, page)

	case "print":
		mgr.PrintSelf(os.Stdout)
		return nil

	default:
		return fmt.Errorf("unknown command: %s (try \\help)", cmd)
	}
}

func parsePageArg(args []string) (uint32, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing page number")
	}
	n, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad page number %q: %w", args[0], err)
	}
	return uint32(n), nil
}
