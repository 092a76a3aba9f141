package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kareemelharony/samatcher/internal/utils"
	"github.com/spf13/cobra"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [ASIN...]",
	Short: "Fetch one or more seed products and cache them locally",
	Long: `Fetches the given ASINs from the Product Advertising API and stores the
full product details in the local database. ASINs already cached are skipped
unless --force is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		manager, _, db, err := buildServices(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		fetched, err := manager.Ingest(context.Background(), args, force)
		if err != nil {
			return err
		}

		if len(fetched) == 0 {
			fmt.Println("All requested ASINs are already cached. Use --force to refetch.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "ASIN\tTITLE\tCATEGORY\t")
		for _, p := range fetched {
			fmt.Fprintf(w, "%s\t%s\t%s\t\n", p.ASIN, truncate(p.Title, 60), p.Category)
		}
		w.Flush()

		utils.Log.Infof("Cached %d product(s)", len(fetched))
		return nil
	},
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolP("force", "f", false, "Refetch even if the ASIN is already cached")
}
