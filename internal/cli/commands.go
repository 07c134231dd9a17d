package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// shapeFlags are the dimensions every matrix command needs.
type shapeFlags struct {
	rows int
	cols int
}

func (s *shapeFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&s.rows, "rows", "n", 0, "number of rows")
	cmd.Flags().IntVarP(&s.cols, "cols", "p", 0, "number of columns")
	_ = cmd.MarkFlagRequired("rows")
	_ = cmd.MarkFlagRequired("cols")
}

// Info describes a matrix file.
type Info struct {
	Path         string `json:"path"`
	Type         string `json:"type"`
	Rows         int    `json:"rows"`
	Cols         int    `json:"cols"`
	ElementWidth int    `json:"element_width"`
	Bytes        int64  `json:"bytes"`
	Layout       string `json:"layout"`
	Checksum     string `json:"crc32c,omitempty"`
}

func (i Info) text(w io.Writer) error {
	t := &textWriter{w: w}
	t.printf("path:     %s\n", i.Path)
	t.printf("type:     %s (%d bytes)\n", i.Type, i.ElementWidth)
	t.printf("shape:    %dx%d\n", i.Rows, i.Cols)
	t.printf("bytes:    %d\n", i.Bytes)
	t.printf("layout:   %s\n", i.Layout)
	if i.Checksum != "" {
		t.printf("crc32c:   %s\n", i.Checksum)
	}
	return t.err
}

func (o *RootOptions) info(m matrix, withChecksum bool) (Info, error) {
	typ, _ := canonicalType(o.Type)
	rows, cols := m.Dims()
	info := Info{
		Path:         m.Path(),
		Type:         typ,
		Rows:         rows,
		Cols:         cols,
		ElementWidth: m.ElementWidth(),
		Bytes:        m.ByteLength(),
		Layout:       m.Layout().String(),
	}
	if withChecksum {
		sum, err := m.Checksum()
		if err != nil {
			return info, err
		}
		info.Checksum = formatChecksum(sum)
	}
	return info, nil
}

func formatChecksum(sum uint32) string {
	return fmt.Sprintf("%08x", sum)
}

// openExisting opens path without provisioning it.
func (o *RootOptions) openExisting(path string, shape shapeFlags) (matrix, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return openMatrix(o.Type, path, shape.rows, shape.cols, o.storeOptions()...)
}

// withMatrix opens path, calls fn and closes the matrix, keeping the first
// error.
func (o *RootOptions) withMatrix(path string, shape shapeFlags, create bool, fn func(m matrix) error) (err error) {
	var m matrix
	if create {
		m, err = openMatrix(o.Type, path, shape.rows, shape.cols, o.storeOptions()...)
	} else {
		m, err = o.openExisting(path, shape)
	}
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(m)
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var shape shapeFlags
	cmd := &cobra.Command{
		Use:   "create <path>",
		Short: "Create a zero-filled matrix file",
		Long: `Create a zero-filled matrix file of exactly rows*cols*width bytes.

An existing file of the right length is left as it is; a file of any other
length is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(f *OutputFormatter) error {
				return rootOpts.withMatrix(args[0], shape, true, func(m matrix) error {
					info, err := rootOpts.info(m, false)
					if err != nil {
						return err
					}
					return f.Success(info, info.text)
				})
			})
		},
	}
	shape.register(cmd)
	return cmd
}

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	var shape shapeFlags
	cmd := &cobra.Command{
		Use:   "info <path>",
		Short: "Validate a matrix file against its dimensions and describe it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(f *OutputFormatter) error {
				return rootOpts.withMatrix(args[0], shape, false, func(m matrix) error {
					info, err := rootOpts.info(m, true)
					if err != nil {
						return err
					}
					return f.Success(info, info.text)
				})
			})
		},
	}
	shape.register(cmd)
	return cmd
}

// Value is the result of get.
type Value struct {
	Row   int  `json:"row,omitempty"`
	Col   int  `json:"col,omitempty"`
	Index *int `json:"index,omitempty"`
	Value any  `json:"value"`
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	var shape shapeFlags
	var index int
	cmd := &cobra.Command{
		Use:   "get <path> [<row> <col>]",
		Short: "Read one element",
		Long: `Read one element by one-based (row, col), or by zero-based linear
index with --index.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(f *OutputFormatter) error {
				byIndex := cmd.Flags().Changed("index")
				if byIndex != (len(args) == 1) {
					return usageError(errors.New("give either <row> <col> or --index"))
				}
				return rootOpts.withMatrix(args[0], shape, false, func(m matrix) error {
					var out Value
					var err error
					if byIndex {
						out.Index = &index
						out.Value, err = m.valueAt(index)
					} else {
						if len(args) != 3 {
							return usageError(errors.New("give both <row> and <col>"))
						}
						if out.Row, out.Col, err = parsePair(args[1], args[2]); err != nil {
							return err
						}
						out.Value, err = m.value(out.Row, out.Col)
					}
					if err != nil {
						return err
					}
					return f.Success(out, func(w io.Writer) error {
						_, err := fmt.Fprintln(w, out.Value)
						return err
					})
				})
			})
		},
	}
	shape.register(cmd)
	cmd.Flags().IntVarP(&index, "index", "i", 0, "zero-based linear index")
	return cmd
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	var shape shapeFlags
	cmd := &cobra.Command{
		Use:   "set <path> <row> <col> <value>",
		Short: "Write one element",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(f *OutputFormatter) error {
				row, col, err := parsePair(args[1], args[2])
				if err != nil {
					return err
				}
				return rootOpts.withMatrix(args[0], shape, false, func(m matrix) error {
					if err := m.assign(row, col, args[3]); err != nil {
						return err
					}
					v, err := m.value(row, col)
					if err != nil {
						return err
					}
					out := Value{Row: row, Col: col, Value: v}
					return f.Success(out, func(w io.Writer) error {
						_, err := fmt.Fprintf(w, "[%d,%d] = %v\n", row, col, v)
						return err
					})
				})
			})
		},
	}
	shape.register(cmd)
	return cmd
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	var shape shapeFlags
	cmd := &cobra.Command{
		Use:   "dump <path>",
		Short: "Print every element, cols per line, in file order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(f *OutputFormatter) error {
				return rootOpts.withMatrix(args[0], shape, false, func(m matrix) error {
					if f.Format == "json" {
						var rows [][]any
						if err := m.eachRow(func(row []any) error {
							rows = append(rows, append([]any(nil), row...))
							return nil
						}); err != nil {
							return err
						}
						return f.Success(rows, nil)
					}

					cells := make([]string, shape.cols)
					return m.eachRow(func(row []any) error {
						for i, v := range row {
							cells[i] = fmt.Sprint(v)
						}
						_, err := fmt.Fprintln(f.Writer, strings.Join(cells, "\t"))
						return err
					})
				})
			})
		},
	}
	shape.register(cmd)
	return cmd
}

// NewFillCommand creates the fill command.
func NewFillCommand(rootOpts *RootOptions) *cobra.Command {
	var shape shapeFlags
	cmd := &cobra.Command{
		Use:   "fill <path> <value>",
		Short: "Set every element to value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(f *OutputFormatter) error {
				return rootOpts.withMatrix(args[0], shape, false, func(m matrix) error {
					if err := m.fillWith(args[1]); err != nil {
						return err
					}
					info, err := rootOpts.info(m, true)
					if err != nil {
						return err
					}
					return f.Success(info, info.text)
				})
			})
		},
	}
	shape.register(cmd)
	return cmd
}

// NewChecksumCommand creates the checksum command.
func NewChecksumCommand(rootOpts *RootOptions) *cobra.Command {
	var shape shapeFlags
	cmd := &cobra.Command{
		Use:   "checksum <path>",
		Short: "Print the CRC32C of a matrix file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(f *OutputFormatter) error {
				return rootOpts.withMatrix(args[0], shape, false, func(m matrix) error {
					sum, err := m.Checksum()
					if err != nil {
						return err
					}
					out := map[string]string{"crc32c": formatChecksum(sum)}
					return f.Success(out, func(w io.Writer) error {
						_, err := fmt.Fprintln(w, out["crc32c"])
						return err
					})
				})
			})
		},
	}
	shape.register(cmd)
	return cmd
}

func parsePair(rowArg, colArg string) (int, int, error) {
	row, err := strconv.Atoi(rowArg)
	if err != nil {
		return 0, 0, usageError(fmt.Errorf("row: %w", err))
	}
	col, err := strconv.Atoi(colArg)
	if err != nil {
		return 0, 0, usageError(fmt.Errorf("col: %w", err))
	}
	return row, col, nil
}
