// Command quill runs a script headless. The clock is simulated, so sleeps
// and waits complete without real delay. Host commands are echoed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"go.uber.org/zap"

	"chosenoffset.com/emberfall/internal/config"
	"chosenoffset.com/emberfall/internal/logging"
	"chosenoffset.com/emberfall/internal/quill"
)

// echoBridge accepts every command and returns it as its output.
type echoBridge struct {
	log *zap.Logger
}

func (b echoBridge) Execute(cmd string) (bool, string) {
	b.log.Info("command", zap.String("line", cmd))
	fmt.Println(">", cmd)
	return true, cmd
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		steps    = flag.Int("steps", quill.DefaultStepsPerTick, "lines executed per tick")
		frame    = flag.Duration("frame", time.Second/60, "simulated time per tick")
		maxTicks = flag.Int("max-ticks", 1_000_000, "give up after this many ticks")
		root     = flag.String("root", ".", "directory readfile may access")
		seed     = flag.Int64("seed", 0, "random seed, 0 for time based")
		level    = flag.String("level", "info", "log level")
		dump     = flag.Bool("dump", false, "print the final globals")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] script.quill\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		return 2
	}

	log, err := logging.New(config.LoggingConfig{Level: *level, Format: "console"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer log.Sync()

	exitCode := -1
	in := quill.New(quill.Options{
		StepsPerTick: *steps,
		FileRoot:     *root,
		Commands:     echoBridge{log: log},
		Exit:         func(code int) { exitCode = code },
		Seed:         *seed,
	}, log)
	defer in.Close()

	if err := in.LoadFile(flag.Arg(0)); err != nil {
		log.Error("failed to start script", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	now := start
	status := in.Status()
	for tick := 0; tick < *maxTicks && !status.Done(); tick++ {
		in.SetExternals(headlessSymbols(now.Sub(start), tick))
		status = in.Tick(ctx, now)
		if status == quill.Sleeping && in.WakeAt().After(now) {
			now = in.WakeAt()
			continue
		}
		now = now.Add(*frame)
	}
	if !status.Done() {
		in.Abort()
		status = in.Status()
	}

	log.Info("script ended",
		zap.String("status", status.String()),
		zap.Duration("simulated", now.Sub(start)),
		zap.Int("errors", len(in.Errors())))
	if *dump {
		snap := in.Snapshot()
		for name, value := range snap.Globals {
			fmt.Printf("%s = %s\n", name, value)
		}
	}

	return exitStatus(status, exitCode)
}

func exitStatus(status quill.Status, requested int) int {
	switch {
	case requested >= 0:
		return requested
	case status == quill.Finished:
		return 0
	case status == quill.Aborted:
		return 2
	default:
		return 1
	}
}

func headlessSymbols(elapsed time.Duration, tick int) map[string]string {
	return map[string]string{
		"player_x":      "0",
		"player_y":      "0",
		"player_tile_x": "0",
		"player_tile_y": "0",
		"health":        "100",
		"inventory":     "",
		"game_time":     "0",
		"day":           "1",
		"total_time":    strconv.Itoa(int(elapsed.Seconds())),
		"state":         "headless",
		"fps":           "0",
		"resolution":    "0x0",
		"level":         "",
		"tick":          strconv.Itoa(tick),
	}
}
