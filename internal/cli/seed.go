package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrlokans/bookstore/internal/entrypoint"
	"github.com/mrlokans/bookstore/internal/errs"
	"github.com/mrlokans/bookstore/internal/services"
)

// Duplicate codes surface as constraint violations of the insert itself.
var (
	errDuplicateBook     = &errs.Error{Kind: errs.KindConstraint, Op: "books.create"}
	errDuplicateCustomer = &errs.Error{Kind: errs.KindConstraint, Op: "customers.create"}
)

// Fixtures is the YAML document loaded by the seed command.
type Fixtures struct {
	Books     []services.BookInput     `yaml:"books"`
	Customers []services.CustomerInput `yaml:"customers"`
}

// SeedResult counts what a seed run did. Existing codes are skipped, or
// updated with --update.
type SeedResult struct {
	BooksAdded       int `json:"books_added"`
	BooksUpdated     int `json:"books_updated"`
	BooksSkipped     int `json:"books_skipped"`
	CustomersAdded   int `json:"customers_added"`
	CustomersUpdated int `json:"customers_updated"`
	CustomersSkipped int `json:"customers_skipped"`
	MirrorFailures   int `json:"mirror_failures"`
}

// SeedCommand loads books and customers from a fixtures file.
type SeedCommand struct {
	File   string
	Update bool
}

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	sc := &SeedCommand{}

	cmd := &cobra.Command{
		Use:   "seed --file fixtures.yaml",
		Short: "Load books and customers from a YAML file",
		Long: `Load books and customers from a YAML file of the form:

  books:
    - book_code: B001
      title: Dế Mèn Phiêu Lưu Ký
      price: 50000
  customers:
    - customer_code: KH001
      full_name: Nguyễn Văn An`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := LoadFixtures(sc.File)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), rootOpts, func(app *entrypoint.App) error {
				result, err := sc.Run(cmd.Context(), app, fixtures)
				if err != nil {
					return err
				}
				return printSeedResult(cmd.OutOrStdout(), rootOpts.Format, result)
			})
		},
	}

	cmd.Flags().StringVarP(&sc.File, "file", "f", "", "path to the fixtures YAML file (required)")
	cmd.Flags().BoolVar(&sc.Update, "update", false, "update rows whose code already exists")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// LoadFixtures reads and parses a fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	var f Fixtures
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures %s: %w", path, err)
	}
	return &f, nil
}

// Run inserts every fixture. Duplicate codes are skipped or updated; any
// other failure stops the run.
func (sc *SeedCommand) Run(ctx context.Context, app *entrypoint.App, f *Fixtures) (SeedResult, error) {
	var result SeedResult

	for _, in := range f.Books {
		outcome, err := app.Books.AddBook(ctx, in)
		if errors.Is(err, errDuplicateBook) {
			if !sc.Update {
				result.BooksSkipped++
				continue
			}
			outcome, err = app.Books.UpdateBook(ctx, in)
			if err == nil {
				result.BooksUpdated++
			}
		} else if err == nil {
			result.BooksAdded++
		}
		if err != nil {
			return result, fmt.Errorf("book %q: %w", in.Code, err)
		}
		if !outcome.MirrorSynced() {
			result.MirrorFailures++
		}
	}

	for _, in := range f.Customers {
		outcome, err := app.Customers.AddCustomer(ctx, in)
		if errors.Is(err, errDuplicateCustomer) {
			if !sc.Update {
				result.CustomersSkipped++
				continue
			}
			outcome, err = app.Customers.UpdateCustomer(ctx, in)
			if err == nil {
				result.CustomersUpdated++
			}
		} else if err == nil {
			result.CustomersAdded++
		}
		if err != nil {
			return result, fmt.Errorf("customer %q: %w", in.Code, err)
		}
		if !outcome.MirrorSynced() {
			result.MirrorFailures++
		}
	}

	return result, nil
}

func printSeedResult(w io.Writer, format string, r SeedResult) error {
	if format == "json" {
		return writeJSON(w, r)
	}
	_, err := fmt.Fprintf(w,
		"Books: %d added, %d updated, %d skipped\nCustomers: %d added, %d updated, %d skipped\nMirror failures: %d\n",
		r.BooksAdded, r.BooksUpdated, r.BooksSkipped,
		r.CustomersAdded, r.CustomersUpdated, r.CustomersSkipped,
		r.MirrorFailures)
	return err
}
