package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kareemelharony/samatcher/pkg/catalog"
	"github.com/kareemelharony/samatcher/pkg/competitors"
	"github.com/kareemelharony/samatcher/pkg/storage"
	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats [ASIN]",
	Short: "Print competitive benchmarks from the stored ranking of a seed",
	Long: `Prints metric ranges (price, rating, review count) across the stored
competitors of a seed, plus the three strongest competitors on each metric.
Run 'samatcher competitors' first to populate the ranking.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("dbpath")

		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		records, err := db.CompetitorsForSeed(ctx, catalog.NormalizeASIN(args[0]), 0)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No stored ranking for this seed. Run 'samatcher competitors' first.")
			return nil
		}

		b := competitors.ComputeBenchmarks(records)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "METRIC\tMIN\tMAX\t")
		fmt.Fprintf(w, "Price\t%s\t%s\t\n", floatCell(b.MinPrice), floatCell(b.MaxPrice))
		fmt.Fprintf(w, "Rating\t%s\t%s\t\n", floatCell(b.MinRating), floatCell(b.MaxRating))
		fmt.Fprintf(w, "Reviews\t%s\t%s\t\n", intCell(b.MinReviews), intCell(b.MaxReviews))
		w.Flush()

		fmt.Println()
		printStrongest("Lowest price", b.StrongestPrice)
		printStrongest("Best sales rank", b.StrongestBSR)
		printStrongest("Most reviews", b.StrongestReviews)
		printStrongest("Highest rating", b.StrongestRatings)

		return nil
	},
}

func printStrongest(label string, asins []string) {
	if len(asins) == 0 {
		fmt.Printf("%s: n/a\n", label)
		return
	}
	fmt.Printf("%s: ", label)
	for i, asin := range asins {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Print(asin)
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
