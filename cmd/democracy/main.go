package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MikeSquared-Agency/Democracy/internal/config"
)

// env carries what every command needs from the process.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(e *env, args []string) error
}

var commands = []command{
	{
		name:  "compute",
		short: "Compute weights for a model subset",
		usage: "democracy compute [-scheme code] [-models models.csv] [-subset subset.csv] [-out weights.csv] [-server url] [names...]",
		long: `Builds the genealogy from the model registry and prints one weight per
requested name as CSV (Model, Weight fraction, Weight). Names may come from
-subset, from trailing arguments, or default to every known variant.
Names missing from the registry are reported as NA. With -server the
weights are computed and recorded by a running service instead.
`,
		run: runCompute,
	},
	{
		name:  "tree",
		short: "Print the genealogy with per-model weights",
		usage: "democracy tree [-scheme code] [-models models.csv]",
		long: `Prints the genealogy forest as an indented listing with the weight each
model receives, to inspect how weight flows through the tree.
`,
		run: runTree,
	},
	{
		name:  "stats",
		short: "Weighted mean and variance of per-model values",
		usage: "democracy stats -values values.csv [-scheme code] [-models models.csv] [-subset subset.csv]",
		long: `Reads a table with Model and Value columns and prints the weighted
mean, variance and standard deviation of the values under the chosen scheme.
`,
		run: runStats,
	},
	{
		name:  "push",
		short: "Upload a registry table to a running service",
		usage: "democracy push [-models models.csv] [-server url] [-token admin-token] [-dry-run]",
		long: `Validates the registry table as a genealogy and replaces the registry of a
running service with it. -dry-run only prints a summary.
`,
		run: runPush,
	},
	{
		name:  "serve",
		short: "Run the weighting HTTP service",
		usage: "democracy serve",
		long: `Serves the weighting API. Uses Postgres when database.url is set and an
in-memory registry seeded from registry.path otherwise. Events are published
to NATS when hermes.url is set.
`,
		run: runServe,
	},
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "democracy: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	e := &env{cfg: cfg, logger: logger, stdout: os.Stdout, stderr: os.Stderr}
	if err := dispatch(e, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "democracy: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "democracy - genealogy-aware weighting of model ensembles\n\n")
	fmt.Fprintf(w, "Usage:\n  democracy [-config file] <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'democracy help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "democracy: unknown command %q\n\nRun 'democracy help' for usage.\n", name)
}

func dispatch(e *env, args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(e.stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(e.stdout, args[1])
		} else {
			printUsage(e.stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(e, args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'democracy help' for usage.", args[0])
}
