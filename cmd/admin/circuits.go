package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"airace/internal/persistence/circuitdb"
	"airace/internal/sim/circuit"
)

const defaultDB = "./data/circuits.db"

func circuitsCmd(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageError("circuits: missing subcommand (import|list|show|delete)")
	}
	sub := args[0]
	switch sub {
	case "import", "list", "show", "delete":
	default:
		return usageError("circuits: unknown subcommand " + sub)
	}
	fs := flag.NewFlagSet("circuits "+sub, flag.ContinueOnError)
	dbPath := fs.String("db", defaultDB, "sqlite circuit store path")
	if err := fs.Parse(args[1:]); err != nil {
		return usageError(err.Error())
	}

	store, err := circuitdb.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", *dbPath, err)
	}
	defer store.Close()

	switch sub {
	case "import":
		if fs.NArg() == 0 {
			return usageError("circuits import: missing file")
		}
		for _, path := range fs.Args() {
			c, err := circuit.LoadFile(path)
			if err != nil {
				return err
			}
			if err := store.Put(ctx, c); err != nil {
				return fmt.Errorf("put %s: %w", c.Name(), err)
			}
			fmt.Fprintf(out, "imported %s anchors=%d length=%.1f\n", c.Name(), c.Count(), c.Length())
		}
		return nil

	case "list":
		list, err := store.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tANCHORS\tLENGTH\tDIGEST\tUPDATED")
		for _, s := range list {
			digest := s.Digest
			if len(digest) > 12 {
				digest = digest[:12]
			}
			fmt.Fprintf(tw, "%s\t%d\t%.1f\t%s\t%s\n", s.Name, s.Anchors, s.Length, digest, s.UpdatedAt.Format("2006-01-02T15:04:05Z"))
		}
		return tw.Flush()

	case "show":
		if fs.NArg() != 1 {
			return usageError("circuits show: expected one name")
		}
		c, err := store.Get(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		b, err := circuit.EncodeYAML(c)
		if err != nil {
			return err
		}
		_, err = out.Write(b)
		return err

	case "delete":
		if fs.NArg() != 1 {
			return usageError("circuits delete: expected one name")
		}
		if err := store.Delete(ctx, fs.Arg(0)); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", fs.Arg(0))
	}
	return nil
}
