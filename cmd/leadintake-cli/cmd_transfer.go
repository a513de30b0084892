package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/leadintake/client"
	"github.com/persistorai/leadintake/internal/models"
)

func newImportCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import buyers from a CSV file",
		Long: `Import buyers from a CSV file with the template header. The import is
all or nothing: if any row is invalid no buyer is saved and every invalid row
is reported. Use - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src io.Reader = os.Stdin
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening import file: %w", err)
				}
				defer f.Close()
				src = f
			}

			result, err := apiClient.Transfer.Import(cmd.Context(), src, dryRun)
			if err != nil {
				fatal("import failed", err)
			}

			if dryRun {
				fmt.Fprintf(os.Stderr, "Dry run: %d of %d rows are valid, nothing saved\n", result.Valid, result.Total)
			} else {
				fmt.Fprintf(os.Stderr, "Imported %d buyers\n", result.Imported)
			}
			output(result, fmt.Sprintf("%d", result.Imported))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without saving")
	return cmd
}

func newExportCmd() *cobra.Command {
	var outputPath, search, city, propertyType, status, timeline string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export buyers matching the filters to a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &client.ListOptions{
				Search:       search,
				City:         models.City(city),
				PropertyType: models.PropertyType(propertyType),
				Status:       models.Status(status),
				Timeline:     models.Timeline(timeline),
			}

			if outputPath == "" {
				outputPath = fmt.Sprintf("buyers-%s.csv", time.Now().UTC().Format("20060102T150405Z"))
			}

			if outputPath == "-" {
				_, err := apiClient.Transfer.Export(cmd.Context(), opts, stdout)
				return err
			}

			n, err := writeFileFrom(outputPath, func(w io.Writer) (int64, error) {
				return apiClient.Transfer.Export(cmd.Context(), opts, w)
			})
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Exported %d bytes to %s\n", n, outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: buyers-<timestamp>.csv, use - for stdout)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Match name, email or phone")
	cmd.Flags().StringVar(&city, "city", "", "Filter by city")
	cmd.Flags().StringVar(&propertyType, "type", "", "Filter by property type")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&timeline, "timeline", "", "Filter by timeline")

	return cmd
}

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template",
		Short: "Print the CSV import template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return apiClient.Transfer.Template(cmd.Context(), stdout)
		},
	}
}

// writeFileFrom streams fill into a temporary file beside path and renames it
// into place on success, so a failed export leaves no partial file.
func writeFileFrom(path string, fill func(io.Writer) (int64, error)) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".leadintake-export-*")
	if err != nil {
		return 0, fmt.Errorf("creating output file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	n, err := fill(tmp)
	if err != nil {
		tmp.Close() //nolint:errcheck
		return n, err
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("closing output file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return n, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, fmt.Errorf("writing output file: %w", err)
	}
	return n, nil
}
