package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/linkmap-analysis/internal/formatter"
	"github.com/linkmap-analysis/internal/parser"
	"github.com/linkmap-analysis/internal/parser/linkmap"
	"github.com/linkmap-analysis/pkg/compression"
	apperrors "github.com/linkmap-analysis/pkg/errors"
)

// inspectFlags are shared by the commands that print one part of a map file.
type inspectFlags struct {
	input  string
	asJSON bool
}

func (f *inspectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Map file to read (required)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print JSON instead of tables")
	cmd.MarkFlagRequired("input")
}

func outputFormatter(asJSON bool) formatter.ReportFormatter {
	name := "text"
	if asJSON {
		name = "json"
	}
	fm, _ := formatter.NewRegistry().Get(name)
	return fm
}

// readDocument reads a local, possibly compressed, map file.
func (a *app) readDocument(ctx context.Context, path string) (*linkmap.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.New(apperrors.CodeNotFound, "map file not found: "+path)
		}
		return nil, apperrors.Wrap(apperrors.CodeReadError, "failed to open map file", err)
	}
	defer f.Close()

	r, typ, err := compression.NewReader(f)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeReadError, "failed to open map file", err)
	}
	defer r.Close()

	p := linkmap.NewParser(&linkmap.ParserOptions{
		MaxFileSize: a.cfg.Parser.MaxFileSize,
		Logger:      a.logger.WithField("component", "parser"),
	})
	doc, err := p.ParseDocument(ctx, r)
	if err != nil {
		if errors.Is(err, parser.ErrInputTooLarge) {
			return nil, apperrors.Wrap(apperrors.CodeTooLarge, "map file too large", err)
		}
		return nil, apperrors.Wrap(apperrors.CodeReadError, "failed to read map file", err)
	}

	a.logger.Debug("Read %s: %d bytes (compression: %s)", path, doc.Len(), typ)
	return doc, nil
}

func (a *app) memoryCmd() *cobra.Command {
	var flags inspectFlags
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Print memory usage per region",
		Long: `Print the memory usage table of a map file: code, data, reserved and free
bytes per memory region, with the usage over all regions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fm := outputFormatter(flags.asJSON)
			doc, err := a.readDocument(cmd.Context(), flags.input)
			if err != nil {
				return err
			}
			return fm.FormatMemory(cmd.OutOrStdout(), doc.ParseMemoryUsage(), doc.TotalMemoryStats())
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) symbolsCmd() *cobra.Command {
	var (
		flags   inspectFlags
		section string
	)
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "List the symbols of a map file",
		Long: `List the name-sorted symbol listing of a map file. With --section only the
symbols whose section column contains the given text are listed; symbols
without a section column never match.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fm := outputFormatter(flags.asJSON)
			doc, err := a.readDocument(cmd.Context(), flags.input)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("section") {
				return fm.FormatSymbols(cmd.OutOrStdout(), doc.SymbolsInSection(section))
			}
			return fm.FormatSymbols(cmd.OutOrStdout(), doc.ParseSymbols())
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&section, "section", "", "Only list symbols whose section contains this text")
	return cmd
}

func (a *app) sectionsCmd() *cobra.Command {
	var (
		flags  inspectFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "List the linked sections of a map file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fm := outputFormatter(flags.asJSON)
			doc, err := a.readDocument(cmd.Context(), flags.input)
			if err != nil {
				return err
			}
			report := doc.Report(flags.input)
			return fm.FormatSections(cmd.OutOrStdout(), report.SectionsByOutput(output))
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&output, "output-section", "", "Only list sections whose output section contains this text")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	var flags inspectFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the memory used over all regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fm := outputFormatter(flags.asJSON)
			doc, err := a.readDocument(cmd.Context(), flags.input)
			if err != nil {
				return err
			}
			return fm.FormatStats(cmd.OutOrStdout(), doc.TotalMemoryStats())
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) findCmd() *cobra.Command {
	var (
		flags       inspectFlags
		addressOnly bool
	)
	cmd := &cobra.Command{
		Use:   "find NAME",
		Short: "Look up a symbol by exact name",
		Long: `Look up a symbol by its exact, case sensitive name and print its address,
space and the line of the map file that defines it. Exits with status 3
when the symbol is not listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			doc, err := a.readDocument(cmd.Context(), flags.input)
			if err != nil {
				return err
			}

			loc, ok := doc.Locate(name)
			if !ok {
				return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("symbol %q not found in %s", name, flags.input))
			}

			out := cmd.OutOrStdout()
			if addressOnly {
				_, err := fmt.Fprintln(out, loc.Symbol.Address)
				return err
			}
			if flags.asJSON {
				return jsonOut(out, loc)
			}

			fmt.Fprintf(out, "%s\n", loc.Symbol.Name)
			fmt.Fprintf(out, "  Address: %s\n", loc.Symbol.Address)
			fmt.Fprintf(out, "  Space:   %s\n", loc.Symbol.Space)
			if loc.Symbol.Section != "" {
				fmt.Fprintf(out, "  Section: %s\n", loc.Symbol.Section)
			}
			_, err = fmt.Fprintf(out, "  Defined: %s:%d\n", flags.input, loc.Line)
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&addressOnly, "address-only", false, "Print only the address")
	return cmd
}
