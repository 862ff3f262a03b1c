package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/Democracy/internal/client"
	"github.com/MikeSquared-Agency/Democracy/internal/genealogy"
	"github.com/MikeSquared-Agency/Democracy/internal/registry"
)

// runPush uploads a registry table to a running service, replacing its
// registry. The table is validated locally first.
func runPush(e *env, args []string) error {
	fs := flag.NewFlagSet("push", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	models := fs.String("models", e.cfg.Registry.Path, "model registry table")
	server := fs.String("server", fmt.Sprintf("http://localhost:%d", e.cfg.Server.Port), "service base URL")
	token := fs.String("token", e.cfg.Server.AdminToken, "admin bearer token")
	dryRun := fs.Bool("dry-run", false, "validate and summarise without uploading")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *models == "" {
		return fmt.Errorf("usage: democracy push -models models.csv [-server url]")
	}

	records, err := registry.LoadFile(*models, e.cfg.Registry.Generations)
	if err != nil {
		return err
	}
	f, err := genealogy.Build(records, e.cfg.GenealogyOptions())
	if err != nil {
		return err
	}

	active := 0
	for _, r := range records {
		if r.Active {
			active++
		}
	}
	if *dryRun {
		fmt.Fprintf(e.stdout, "%d models (%d active, %d lineages), not uploaded\n", len(records), active, len(f.Roots()))
		return nil
	}

	c := client.NewHTTPClient(strings.TrimRight(*server, "/"), *token, "democracy-cli")
	if err := c.ReplaceModels(context.Background(), records); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "pushed %d models (%d active) to %s\n", len(records), active, *server)
	return nil
}
