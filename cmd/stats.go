package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/SrGnis/cataclysm-db/internal/store"
)

var (
	statsHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"})

	statsDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"})
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show release database statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store.New(flagDB, newLogger())
		idx := st.LoadIndex()

		games := make([]string, 0, len(idx))
		for name := range idx {
			games = append(games, name)
		}
		sort.Strings(games)

		if len(games) == 0 {
			fmt.Println("Database is empty.")
			return nil
		}

		fmt.Println(statsDimStyle.Render("Database: " + st.Root()))
		fmt.Println(statsHeaderStyle.Render(fmt.Sprintf("%-16s %9s %8s  %s", "GAME", "RELEASES", "ASSETS", "UPDATED")))
		for _, name := range games {
			releases := st.LoadReleases(name)
			assets := 0
			for _, r := range releases {
				assets += len(r.Assets)
			}
			updated := time.Unix(idx[name].Version, 0).Format("2006-01-02 15:04")
			fmt.Printf("%-16s %9d %8d  %s\n", name, len(releases), assets, updated)
		}
		return nil
	},
}
