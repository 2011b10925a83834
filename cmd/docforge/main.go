// Command docforge converts images to PDF and merges image sets into
// multi-page PDFs from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"docforge/engine"
	"docforge/observability"
	"docforge/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "docforge:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: docforge <convert|merge> [-o out.pdf] <image>...")
	}
	cmd := args[0]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	out := fs.String("o", "", "output file (default: derived from inputs)")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	inputs := fs.Args()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := observability.NewSlog(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	st := store.NewMemory()
	eng := engine.New(st, engine.WithLogger(log))
	ctx := context.Background()

	ids := make([]string, 0, len(inputs))
	for _, p := range inputs {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		mt := mime.TypeByExtension(filepath.Ext(p))
		if i := strings.Index(mt, ";"); i >= 0 {
			mt = mt[:i]
		}
		ids = append(ids, st.Add(filepath.Base(p), mt, data))
	}

	var (
		res *engine.Result
		err error
	)
	switch cmd {
	case "convert":
		if len(ids) != 1 {
			return fmt.Errorf("convert takes exactly one image")
		}
		res, err = eng.Convert(ctx, ids[0], nil)
	case "merge":
		res, err = eng.Merge(ctx, ids, nil)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}

	art, err := st.Get(ctx, res.ArtifactID)
	if err != nil {
		return err
	}
	target := *out
	if target == "" {
		target = art.Name
	}
	if err := os.WriteFile(target, art.Data, 0o644); err != nil {
		return err
	}
	log.Info("wrote output",
		observability.String("file", target),
		observability.Int("pages", res.Pages),
		observability.Int("bytes", len(art.Data)))
	return nil
}
