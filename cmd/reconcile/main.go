package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	cli "github.com/jawher/mow.cli"

	"github.com/grocerylens/backend/internal/domain"
	"github.com/grocerylens/backend/internal/infrastructure/categories"
	"github.com/grocerylens/backend/internal/usecase"
)

// output is what the command prints
type output struct {
	Query    string                       `json:"query"`
	Products []domain.MatchedProductGroup `json:"products"`
}

func main() {
	app := cli.App("reconcile", "Reconcile saved store search results into matched products")
	app.Spec = "[OPTIONS] [INPUT]"

	var (
		query          = app.StringOpt("q query", "", "Search query the results were fetched for")
		sortBy         = app.StringOpt("sort", "", "Re-order by price, quantity or name")
		descending     = app.BoolOpt("desc", false, "Sort descending")
		categoriesPath = app.StringOpt("categories", "categories.json", "Category keyword file")
		threshold      = app.Float64Opt("threshold", 0.8, "Name similarity threshold")
		minStores      = app.IntOpt("min-stores", 1, "Minimum stores per product")
		debug          = app.BoolOpt("debug", false, "Log grouping decisions to stderr")
		input          = app.StringArg("INPUT", "-", "JSON file of {store: {status, products, location}}, - for stdin")
	)

	app.Action = func() {
		log.SetOutput(os.Stderr)

		results, err := readResults(*input)
		if err != nil {
			log.Printf("Failed to read %s: %v", *input, err)
			cli.Exit(1)
		}

		table := categories.Load(*categoriesPath)
		reconciler := usecase.NewReconciler(
			usecase.NewRelevanceClassifier(table, domain.FreshProduceCategory),
			usecase.NewSimilarityGrouper(usecase.GrouperConfig{
				SimilarityThreshold: *threshold,
				MinStoresPerGroup:   *minStores,
				EnableDebugLogging:  *debug,
			}),
			usecase.ReconcilerConfig{EnableDebugLogging: *debug},
		)

		products := reconciler.Reconcile(results, *query)
		if *sortBy != "" {
			products = usecase.SortGroups(products, *sortBy, !*descending)
		}

		if err := writeOutput(os.Stdout, output{Query: *query, Products: products}); err != nil {
			log.Printf("Failed to write output: %v", err)
			cli.Exit(1)
		}
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// readResults decodes the per-store results from path, or stdin for "-"
func readResults(path string) (map[string]domain.StoreResult, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		r = file
	}
	return decodeResults(r)
}

func decodeResults(r io.Reader) (map[string]domain.StoreResult, error) {
	var results map[string]domain.StoreResult
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}

	for name, result := range results {
		// Saved results often omit the status of a successful search
		if result.Status == "" {
			result.Status = domain.StoreStatusOK
		}
		if result.Store == "" {
			result.Store = name
		}
		results[name] = result
	}
	return results, nil
}

func writeOutput(w io.Writer, out output) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
