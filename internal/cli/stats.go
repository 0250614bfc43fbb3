package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show your memory statistics",
	Long:  `Show how many messages and sessions Yui remembers for you, and which personality you talk to most.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	cmd.Println(rt.formatStats())
	return nil
}

func (r *runtime) formatStats() string {
	stats, err := r.orchestrator.Memory().GetUserStats()
	if err != nil {
		return fmt.Sprintf("Error reading stats: %v", err)
	}

	favorite := stats.FavoritePersonality
	if favorite == "" {
		favorite = "none yet"
	}

	semantic := "keyword search"
	if r.orchestrator.Memory().VectorEnabled() {
		semantic = "semantic search"
	}

	return fmt.Sprintf(`Memory statistics for %s
  Messages remembered:  %d
  Sessions:             %d
  Favorite personality: %s
  Recall mode:          %s`,
		r.cfg.UserName,
		stats.TotalMessages,
		stats.TotalSessions,
		favorite,
		semantic,
	)
}
