package cli

import (
	"github.com/spf13/cobra"

	"github.com/mnordvik/statbot/internal/ssb"
	"github.com/mnordvik/statbot/pkg/api"
)

func newCategoriesCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the spending categories the tools understand",
		Long: `List every category alias the spending tools accept, with the COICOP
code each one resolves to. The list is built into the binary; --remote
asks a running server instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var categories []api.Category
			if remote {
				remoteCategories, err := apiClient.Categories()
				if err != nil {
					return err
				}
				categories = remoteCategories
			} else {
				for _, a := range ssb.Aliases() {
					categories = append(categories, api.Category{Name: a.Name, Code: a.Code})
				}
			}

			items := make([]interface{}, len(categories))
			for i := range categories {
				items[i] = &categories[i]
			}
			printOutput(items, []string{"NAME", "CODE"}, func(v interface{}) []string {
				c, ok := v.(*api.Category)
				if !ok {
					return []string{"?", "?"}
				}
				return []string{c.Name, c.Code}
			})
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Fetch the list from a statbot server")

	return cmd
}
