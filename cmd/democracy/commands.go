package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MikeSquared-Agency/Democracy/internal/client"
	"github.com/MikeSquared-Agency/Democracy/internal/genealogy"
	"github.com/MikeSquared-Agency/Democracy/internal/lookup"
	"github.com/MikeSquared-Agency/Democracy/internal/metrics"
	"github.com/MikeSquared-Agency/Democracy/internal/registry"
	"github.com/MikeSquared-Agency/Democracy/internal/report"
	"github.com/MikeSquared-Agency/Democracy/internal/stats"
	"github.com/MikeSquared-Agency/Democracy/internal/weighting"
)

// queryFlags are the flags shared by the offline commands. Defaults come from
// the config file.
type queryFlags struct {
	scheme string
	models string
	subset string
}

func newFlagSet(e *env, name string) (*flag.FlagSet, *queryFlags) {
	q := &queryFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.StringVar(&q.scheme, "scheme", e.cfg.Weighting.DefaultScheme, "democracy scheme: variant, model, institute, country, family or code")
	fs.StringVar(&q.models, "models", e.cfg.Registry.Path, "model registry table")
	fs.StringVar(&q.subset, "subset", e.cfg.Registry.SubsetPath, "table of model names to weight")
	return fs, q
}

func (q *queryFlags) load(e *env, extra []string) ([]registry.ModelRecord, weighting.Scheme, []string, error) {
	scheme, err := weighting.ParseScheme(q.scheme)
	if err != nil {
		return nil, "", nil, err
	}
	if q.models == "" {
		return nil, "", nil, errors.New("no model registry: pass -models or set registry.path")
	}
	records, err := registry.LoadFile(q.models, e.cfg.Registry.Generations)
	if err != nil {
		return nil, "", nil, err
	}

	var subset []string
	if q.subset != "" {
		subset, err = registry.LoadSubsetFile(q.subset)
		if err != nil {
			return nil, "", nil, err
		}
	}
	subset = append(subset, extra...)
	return records, scheme, subset, nil
}

func query(e *env, q *queryFlags, extra []string) (*lookup.Result, error) {
	records, scheme, subset, err := q.load(e, extra)
	if err != nil {
		return nil, err
	}
	result, err := lookup.Compute(records, scheme, subset, e.cfg.GenealogyOptions())
	if err != nil {
		metrics.ObserveFailure(string(scheme))
		return nil, err
	}
	if len(result.Unresolved) > 0 {
		e.logger.Warn("unresolved model names", "scheme", scheme, "names", result.Unresolved)
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// compute
// ---------------------------------------------------------------------------

func runCompute(e *env, args []string) error {
	fs, q := newFlagSet(e, "compute")
	out := fs.String("out", "-", "output CSV file, - for stdout")
	server := fs.String("server", "", "base URL of a running service to compute against")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *server != "" {
		return computeRemote(e, q, *server, fs.Args(), *out)
	}

	result, err := query(e, q, fs.Args())
	if err != nil {
		return err
	}
	return writeOutput(e, *out, len(result.Entries), func(w io.Writer) error {
		return report.WriteCSV(w, result)
	})
}

// computeRemote asks a running service for the weights so the run is recorded
// there. The registry is the service's, not -models.
func computeRemote(e *env, q *queryFlags, server string, extra []string, out string) error {
	scheme, err := weighting.ParseScheme(q.scheme)
	if err != nil {
		return err
	}
	var subset []string
	if q.subset != "" {
		if subset, err = registry.LoadSubsetFile(q.subset); err != nil {
			return err
		}
	}
	subset = append(subset, extra...)

	c := client.NewHTTPClient(strings.TrimRight(server, "/"), "", "democracy-cli")
	run, err := c.ComputeWeights(context.Background(), string(scheme), subset)
	if err != nil {
		return err
	}
	e.logger.Info("remote weights computed", "run_id", run.ID, "scheme", run.Scheme)
	if len(run.Unresolved) > 0 {
		e.logger.Warn("unresolved model names", "scheme", scheme, "names", run.Unresolved)
	}
	return writeOutput(e, out, len(run.Entries), func(w io.Writer) error {
		return report.WriteEntries(w, run.Entries)
	})
}

func writeOutput(e *env, path string, n int, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(e.stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "wrote %d weights to %s\n", n, path)
	return nil
}

// ---------------------------------------------------------------------------
// tree
// ---------------------------------------------------------------------------

func runTree(e *env, args []string) error {
	fs, q := newFlagSet(e, "tree")
	if err := fs.Parse(args); err != nil {
		return err
	}

	records, scheme, _, err := q.load(e, nil)
	if err != nil {
		return err
	}
	f, err := genealogy.Build(records, e.cfg.GenealogyOptions())
	if err != nil {
		return err
	}
	w, err := weighting.Compute(f, scheme)
	if err != nil {
		return err
	}
	return report.WriteTree(e.stdout, w)
}

// ---------------------------------------------------------------------------
// stats
// ---------------------------------------------------------------------------

func runStats(e *env, args []string) error {
	fs, q := newFlagSet(e, "stats")
	valuesPath := fs.String("values", "", "table with Model and Value columns")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *valuesPath == "" {
		return fmt.Errorf("usage: democracy stats -values values.csv")
	}

	values, err := stats.LoadValuesFile(*valuesPath)
	if err != nil {
		return err
	}
	result, err := query(e, q, fs.Args())
	if err != nil {
		return err
	}
	summary, err := stats.Weighted(result, values)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "scheme:   %s\n", result.Scheme)
	fmt.Fprintf(e.stdout, "count:    %d\n", summary.Count)
	fmt.Fprintf(e.stdout, "mean:     %g\n", summary.Mean)
	fmt.Fprintf(e.stdout, "variance: %g\n", summary.Variance)
	fmt.Fprintf(e.stdout, "std_dev:  %g\n", summary.StdDev)
	if len(summary.Missing) > 0 {
		fmt.Fprintf(e.stderr, "warning: no value for %v\n", summary.Missing)
	}
	return nil
}
