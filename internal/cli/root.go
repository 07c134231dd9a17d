package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hupe1980/binmatrix"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Type    string
	Layout  string
	Config  string

	logger *binmatrix.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the binmatrix CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "binmatrix",
		Short: "Inspect and edit file-backed binary matrices",
		Long: `binmatrix reads and writes headerless binary matrix files: rows*cols
fixed-width elements in native byte order, addressed by one-based (row, col)
pairs or zero-based linear indices. Dimensions are not stored in the file and
must be given with --rows and --cols.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return usageError(fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if _, err := canonicalType(opts.Type); err != nil {
				return usageError(err)
			}
			if _, err := binmatrix.ParseLayout(opts.Layout); err != nil {
				return usageError(err)
			}

			opts.logger = binmatrix.NoopLogger()
			if opts.Verbose {
				opts.logger = binmatrix.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
					Level: slog.LevelDebug,
				}))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log operations to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Type, "type", "t", "float64", "element type (int8|uint8|int16|uint16|int32|uint32|int64|uint64|float32|float64)")
	cmd.PersistentFlags().StringVar(&opts.Layout, "layout", "row-count", "(row, col) reduction (row-count|row-major)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "YAML config file for archive commands")

	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewInfoCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewFillCommand(opts))
	cmd.AddCommand(NewChecksumCommand(opts))
	cmd.AddCommand(NewArchiveCommand(opts))

	return cmd
}

// storeOptions translates global flags into binmatrix options.
func (o *RootOptions) storeOptions() []binmatrix.Option {
	layout, _ := binmatrix.ParseLayout(o.Layout)
	logger := o.logger
	if logger == nil {
		logger = binmatrix.NoopLogger()
	}
	return []binmatrix.Option{
		binmatrix.WithLayout(layout),
		binmatrix.WithLogger(logger),
		binmatrix.WithDurability(binmatrix.DurabilitySync),
	}
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// run executes fn and reports its error in the selected format.
func (o *RootOptions) run(cmd *cobra.Command, fn func(f *OutputFormatter) error) error {
	f := o.formatter(cmd)
	err := classify(fn(f))
	f.Failure(err)
	return err
}

// classify marks errors caused by the invocation rather than the data.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	var numErr *strconv.NumError
	switch {
	case errors.As(err, &exitErr):
		return err
	case errors.Is(err, binmatrix.ErrOutOfRange),
		errors.Is(err, binmatrix.ErrInvalidShape),
		errors.Is(err, binmatrix.ErrDimensionMismatch),
		errors.As(err, &numErr):
		return usageError(err)
	default:
		return err
	}
}
