package cmd

import (
	"github.com/spf13/cobra"

	"github.com/phnplatform/studyterm/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "studyterm [courseID] [contentID]",
	Short: "Terminal learning sessions",
	Long: "studyterm: watch lessons, take timed quizzes and ask the course assistant " +
		"from the terminal, against the learning platform or an offline course file.",
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runCourse(cmd, args)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config.toml (default $XDG_CONFIG_HOME/studyterm/config.toml)")
	pf.String("mode", "", "Backend mode: remote or local")
	pf.String("api-url", "", "Learning platform API base URL")
	pf.String("token", "", "Bearer token for the platform API")
	pf.String("course-file", "", "Course definition for local mode (YAML)")
	pf.String("db", "", "Path to SQLite database file (overrides STUDYTERM_DB env var)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(chatsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path, then STUDYTERM_DB and the default XDG path.
func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}
