package routes

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/drivetime/drivetime/pkg/config"
	"github.com/drivetime/drivetime/pkg/model"
)

func NewRoutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "lists the configured routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := config.LoadRoutes(config.RoutesFile)
			if err != nil {
				return err
			}
			PrintRoutes(cmd.OutOrStdout(), table)
			return nil
		},
	}
	return cmd
}

// PrintRoutes writes one line per route with its checkpoints in driving order.
func PrintRoutes(w io.Writer, table *model.RouteTable) {
	for _, r := range table.All() {
		fmt.Fprintf(w, "%-4s %s\n", r.ID, r.Name)
		fmt.Fprintf(w, "     %s\n", strings.Join(
			append(lo.Map(r.Checkpoints, func(c string, i int) string {
				return fmt.Sprintf("%d. %s", i+1, c)
			}), r.SectionName(r.NumSections())),
			" -> "))
	}
}
