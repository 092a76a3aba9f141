package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/kareemelharony/samatcher/internal/utils"
	"github.com/spf13/cobra"
)

// competitorsCmd represents the competitors command
var competitorsCmd = &cobra.Command{
	Use:   "competitors [ASIN]",
	Short: "Discover and rank competitors for a seed product",
	Long: `Collects competitor candidates for the seed ASIN (related products, keyword
search on the title, category search), scores each one against the seed by
text similarity, and prints the ranking. Candidate product details already in
the local cache are reused unless --refresh-candidates is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		refreshSeed, _ := cmd.Flags().GetBool("refresh")
		refreshCandidates, _ := cmd.Flags().GetBool("refresh-candidates")
		exportPath, _ := cmd.Flags().GetString("export")

		manager, service, db, err := buildServices(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()

		seed, err := manager.GetSeedDetails(ctx, args[0], refreshSeed)
		if err != nil {
			return err
		}
		if seed == nil {
			return fmt.Errorf("product not found: %s", args[0])
		}

		if _, err := service.Analyse(ctx, *seed, refreshCandidates); err != nil {
			return err
		}

		rows, err := service.Summary(ctx, seed.ASIN, limit)
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			fmt.Println("No competitors found for this product.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "RANK\tASIN\tSIMILARITY\tPRICE\tRATING\tREVIEWS\tBSR\t")
		for i, r := range rows {
			fmt.Fprintf(w, "%d\t%s\t%.4f\t%s\t%s\t%s\t%s\t\n",
				i+1, r.CompetitorASIN, r.Similarity,
				floatCell(r.Price), floatCell(r.ReviewRating),
				intCell(r.ReviewCount), intCell(r.BestSellerRank))
		}
		w.Flush()

		if exportPath != "" {
			if err := db.ExportCompetitorsToCSV(ctx, seed.ASIN, exportPath); err != nil {
				return err
			}
			utils.Log.Infof("Exported competitors for %s to %s", seed.ASIN, exportPath)
		}

		return nil
	},
}

func floatCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func intCell(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func init() {
	rootCmd.AddCommand(competitorsCmd)
	competitorsCmd.Flags().IntP("limit", "n", 10, "Number of competitors to display (0 for all)")
	competitorsCmd.Flags().BoolP("refresh", "r", false, "Refetch the seed product before analysing")
	competitorsCmd.Flags().BoolP("refresh-candidates", "", false, "Rebuild the candidate pool via fresh API searches")
	competitorsCmd.Flags().StringP("export", "o", "", "Write the full ranking to a CSV file at this path")
}
