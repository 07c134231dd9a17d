package cli

import (
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/binmatrix/archive"
)

// NewArchiveCommand creates the archive command group.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Snapshot matrix files into a blob store and restore them",
		Long: `Snapshot matrix files into the blob store named by the config file
(local directory, MinIO or S3) and restore them.

Without --config, archives go to ./binmatrix-archive.`,
	}
	cmd.AddCommand(newArchiveSnapshotCommand(rootOpts))
	cmd.AddCommand(newArchiveRestoreCommand(rootOpts))
	cmd.AddCommand(newArchiveListCommand(rootOpts))
	return cmd
}

func (o *RootOptions) archiver(cmd *cobra.Command) (*archive.Archiver, error) {
	cfg, err := LoadConfig(o.Config)
	if err != nil {
		return nil, usageError(err)
	}
	bs, err := cfg.Archive.OpenBlobStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	return cfg.Archive.Archiver(bs, o.logger)
}

// Snapshot summarizes a manifest.
type Snapshot struct {
	ID          string    `json:"id"`
	Parent      string    `json:"parent,omitempty"`
	Created     time.Time `json:"created"`
	Rows        int       `json:"rows"`
	Cols        int       `json:"cols"`
	Width       int       `json:"element_width"`
	Chunks      int       `json:"chunks"`
	Uploaded    int       `json:"uploaded_chunks"`
	Compression string    `json:"compression"`
	StoredBytes int64     `json:"stored_bytes"`
}

func summarize(m *archive.Manifest) Snapshot {
	return Snapshot{
		ID:          m.ID,
		Parent:      m.Parent,
		Created:     m.Created,
		Rows:        m.Rows,
		Cols:        m.Cols,
		Width:       m.ElementWidth,
		Chunks:      len(m.Chunks),
		Uploaded:    m.Owned(),
		Compression: m.Compression.String(),
		StoredBytes: m.StoredBytes(),
	}
}

func (s Snapshot) text(w io.Writer) error {
	t := &textWriter{w: w}
	t.printf("snapshot %s\n", s.ID)
	if s.Parent != "" {
		t.printf("parent:   %s\n", s.Parent)
	}
	t.printf("created:  %s\n", s.Created.Format(time.RFC3339))
	t.printf("shape:    %dx%d (%d-byte elements)\n", s.Rows, s.Cols, s.Width)
	t.printf("chunks:   %d (%d uploaded)\n", s.Chunks, s.Uploaded)
	t.printf("stored:   %d bytes %s\n", s.StoredBytes, s.Compression)
	return t.err
}

func newArchiveSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	var shape shapeFlags
	cmd := &cobra.Command{
		Use:   "snapshot <path>",
		Short: "Upload a snapshot of a matrix file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(f *OutputFormatter) error {
				a, err := rootOpts.archiver(cmd)
				if err != nil {
					return err
				}
				return rootOpts.withMatrix(args[0], shape, false, func(mx matrix) error {
					m, err := a.Snapshot(cmd.Context(), mx)
					if err != nil {
						return err
					}
					s := summarize(m)
					return f.Success(s, s.text)
				})
			})
		},
	}
	shape.register(cmd)
	return cmd
}

func newArchiveRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "restore <dst>",
		Short: "Restore a snapshot into a new file",
		Long: `Restore the latest snapshot, or the one named by --id, into dst.
dst must not exist. The dimensions and element width are printed so the file
can be opened afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(f *OutputFormatter) error {
				a, err := rootOpts.archiver(cmd)
				if err != nil {
					return err
				}

				var m *archive.Manifest
				if id == "" {
					m, err = a.Latest(cmd.Context())
				} else {
					m, err = a.Manifest(cmd.Context(), id)
				}
				if err != nil {
					return err
				}
				if err := a.Restore(cmd.Context(), m, args[0]); err != nil {
					return err
				}

				s := summarize(m)
				return f.Success(s, func(w io.Writer) error {
					t := &textWriter{w: w}
					t.printf("restored %s to %s\n", s.ID, args[0])
					t.printf("shape:    %dx%d (%d-byte elements)\n", s.Rows, s.Cols, s.Width)
					return t.err
				})
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "snapshot ID (default: latest)")
	return cmd
}

func newArchiveListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(f *OutputFormatter) error {
				a, err := rootOpts.archiver(cmd)
				if err != nil {
					return err
				}
				ids, err := a.List(cmd.Context())
				if err != nil {
					return err
				}

				latest := ""
				if m, err := a.Latest(cmd.Context()); err == nil {
					latest = m.ID
				} else if !errors.Is(err, archive.ErrNoSnapshot) {
					return err
				}

				out := struct {
					Snapshots []string `json:"snapshots"`
					Latest    string   `json:"latest,omitempty"`
				}{ids, latest}
				return f.Success(out, func(w io.Writer) error {
					t := &textWriter{w: w}
					for _, id := range ids {
						marker := " "
						if id == latest {
							marker = "*"
						}
						t.printf("%s %s\n", marker, id)
					}
					return t.err
				})
			})
		},
	}
}
