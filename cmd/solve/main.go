package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gamesolver/cache"
	"gamesolver/config"
	"gamesolver/game"
	"gamesolver/nim"
	"gamesolver/searcher"
	"gamesolver/tictactoe"
)

func main() {
	var (
		gameName   = flag.String("game", "tictactoe", "game to solve: tictactoe or nim")
		heapsArg   = flag.String("heaps", "3,4,5", "comma-separated heap sizes (nim only)")
		configPath = flag.String("config", "", "path to YAML config file")
		workers    = flag.Int("workers", 0, "override worker pool size")
		budget     = flag.Duration("budget", 0, "override wall-clock search budget")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("load config")
		}
	}
	if *workers > 0 {
		cfg.WorkerCount = *workers
	}
	if *budget > 0 {
		cfg.TimeBudget = config.Duration(*budget)
	}

	root, err := rootState(*gameName, *heapsArg)
	if err != nil {
		log.Fatal().Err(err).Msg("bad game selection")
	}

	options := []cache.Option{cache.WithBudget(cfg.TableBudget)}
	if cfg.MonitorMemory {
		monitor := cache.NewMonitor(
			cache.WithSafetyFraction(cfg.MemorySafetyFraction),
			cache.WithSampleInterval(cfg.SampleInterval.Std()),
		)
		options = append(options, cache.WithMonitor(monitor))
	}
	table := cache.NewTable(options...)
	table.Start()
	defer table.Stop()

	solverOptions := []searcher.Option{
		searcher.WithTable(table),
		searcher.WithMetrics(),
	}
	if cfg.TimeBudget > 0 {
		solverOptions = append(solverOptions, searcher.WithTimeBudget(cfg.TimeBudget.Std()))
	}
	solver := searcher.New(cfg.WorkerCount, solverOptions...)

	started := time.Now()
	result, err := solver.Solve(root)
	if err != nil {
		log.Fatal().Err(err).Msg("solve failed")
	}
	scores, err := solver.MoveScores(root)
	if err != nil {
		log.Fatal().Err(err).Msg("score moves")
	}

	fmt.Printf("best move: %s  value=%d bound=%s  (%v, %d nodes)\n",
		result.Move, result.Record.Value, result.Record.Bound,
		time.Since(started).Round(time.Millisecond), result.Metric.Nodes)
	for _, ms := range scores {
		fmt.Printf("  %-24s value=%d bound=%s\n", ms.Move, ms.Record.Value, ms.Record.Bound)
	}
	stats := table.Stats()
	log.Info().
		Uint64("probes", stats.Probes).
		Uint64("hits", stats.Hits).
		Int64("entries", stats.Entries).
		Int64("capacity", table.Capacity()).
		Msg("table stats")
}

func rootState(name, heapsArg string) (game.State, error) {
	switch name {
	case "tictactoe":
		return tictactoe.New(), nil
	case "nim":
		parts := strings.Split(heapsArg, ",")
		heaps := make([]int, 0, len(parts))
		for _, p := range parts {
			h, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || h < 0 {
				return nil, fmt.Errorf("bad heap size %q", p)
			}
			heaps = append(heaps, h)
		}
		return nim.New(heaps...), nil
	default:
		return nil, fmt.Errorf("unknown game %q", name)
	}
}
