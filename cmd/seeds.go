package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kareemelharony/samatcher/pkg/storage"
	"github.com/spf13/cobra"
)

// seedsCmd represents the seeds command
var seedsCmd = &cobra.Command{
	Use:   "seeds",
	Short: "List the products cached in the local database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("dbpath")

		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		asins, err := db.ListSeedASINs(ctx)
		if err != nil {
			return err
		}

		if len(asins) == 0 {
			fmt.Println("No products cached yet. Run 'samatcher ingest' first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "ASIN\tTITLE\tCATEGORY\tFETCHED\t")
		for _, asin := range asins {
			p, err := db.GetProduct(ctx, asin)
			if err != nil {
				return err
			}
			if p == nil {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
				p.ASIN, truncate(p.Title, 60), p.Category, p.FetchedAt.Format(storage.TimeLayout))
		}
		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedsCmd)
}
