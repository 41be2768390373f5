// Command binspectra bins the gamma energies of a set of hit logs into
// fixed-width histograms and writes them as CSV files.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vk/bremsim/internal/analysis"
	"github.com/vk/bremsim/internal/ctxlog"
	"github.com/vk/bremsim/internal/units"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := analysis.DefaultBinOptions()

	cmd := &cobra.Command{
		Use:   "binspectra",
		Short: "Bin hit log gamma energies into CSV histograms",
		Long: `Reads every hit log in the data directory whose name matches the pattern,
histograms the kinetic energy of its gamma rows and writes one CSV per file
plus a combined CSV with one column per file, ordered by foil thickness.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
			ctx := ctxlog.WithLogger(cmd.Context(), logger)
			return runBin(ctx, cmd.OutOrStdout(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Dir, "data", opts.Dir, "Directory containing the hit logs")
	flags.StringVar(&opts.Pattern, "pattern", opts.Pattern, "File name pattern of the hit logs")
	flags.Float64Var(&opts.Width, "bin-width", opts.Width, "Bin width in MeV")
	flags.Float64Var(&opts.Min, "min", opts.Min, "Lower edge of the first bin in MeV")
	flags.Float64Var(&opts.Max, "max", opts.Max, "Upper edge of the last bin in MeV")
	flags.StringVar(&opts.OutDir, "out", opts.OutDir, "Output directory for the CSV files")
	return cmd
}

func runBin(ctx context.Context, out io.Writer, opts analysis.BinOptions) error {
	fmt.Fprintln(out, "Binning settings:")
	fmt.Fprintf(out, "  Bin width: %s MeV (%.1f keV)\n", units.FormatFloat(opts.Width), opts.Width*units.MeV/units.KeV)
	fmt.Fprintf(out, "  Range: %s to %s MeV\n", units.FormatFloat(opts.Min), units.FormatFloat(opts.Max))

	report, err := analysis.BinFiles(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to bin spectra: %w", err)
	}

	fmt.Fprintln(out, "\nProcessing files:")
	for _, f := range report.Files {
		fmt.Fprintf(out, "  %s -> %s\n", filepath.Base(f.Path), f.Output)
		fmt.Fprintf(out, "    gammas: %d | K-alpha(%s-%s): %d | K-beta(%s-%s): %d\n",
			f.Gammas,
			units.FormatFloat(analysis.KAlpha.Lo), units.FormatFloat(analysis.KAlpha.Hi), f.KAlpha,
			units.FormatFloat(analysis.KBeta.Lo), units.FormatFloat(analysis.KBeta.Hi), f.KBeta)
	}

	fmt.Fprintln(out, "\nDone.")
	fmt.Fprintf(out, "Combined CSV: %s\n", report.Combined)
	fmt.Fprintf(out, "Individual CSVs saved in: %s/\n", opts.OutDir)
	return nil
}
