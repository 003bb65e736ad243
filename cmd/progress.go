package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phnplatform/studyterm/internal/store"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show offline progress and quiz attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID, _ := cmd.Flags().GetString("course")
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		sums, err := s.ProgressRepo().Summaries(ctx)
		if err != nil {
			return fmt.Errorf("query progress: %w", err)
		}

		if len(sums) == 0 {
			fmt.Println("No progress recorded yet.")
		} else {
			fmt.Printf("%-24s  %8s  %-4s  %s\n", "Content", "Watched", "Done", "Updated")
			fmt.Println(strings.Repeat("─", 60))
			for _, p := range sums {
				done := ""
				if p.Completed {
					done = "✓"
				}
				fmt.Printf("%-24s  %7.0f%%  %-4s  %s\n",
					truncate(p.ContentID, 24), p.Percent, done,
					p.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
		}

		attempts, err := s.QuizRepo().Attempts(ctx, store.QueryOpts{Limit: limit, Filter: courseID})
		if err != nil {
			return fmt.Errorf("query attempts: %w", err)
		}
		if len(attempts) == 0 {
			return nil
		}

		fmt.Println()
		fmt.Println("Quiz Attempts")
		fmt.Println(strings.Repeat("─", 60))
		fmt.Printf("%-16s  %-16s  %6s  %7s  %6s  %s\n", "Course", "Quiz", "Score", "Correct", "Time", "When")
		for _, a := range attempts {
			fmt.Printf("%-16s  %-16s  %5.0f%%  %3d/%-3d  %5.0fs  %s\n",
				truncate(a.CourseID, 16), truncate(a.QuizID, 16), a.Score,
				a.CorrectAnswers, a.TotalQuestions, a.TimeTaken,
				a.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Show recent offline assistant transcripts",
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID, _ := cmd.Flags().GetString("course")
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		turns, err := s.ChatRepo().Turns(cmd.Context(), store.QueryOpts{Limit: limit, Filter: courseID})
		if err != nil {
			return fmt.Errorf("query transcripts: %w", err)
		}
		if len(turns) == 0 {
			fmt.Println("No assistant conversations found.")
			return nil
		}

		sep := strings.Repeat("─", 60)
		// Oldest first reads like a conversation.
		for i := len(turns) - 1; i >= 0; i-- {
			t := turns[i]
			fmt.Println(sep)
			where := t.CourseID
			if t.ContentID != "" {
				where += "/" + t.ContentID
			}
			fmt.Printf("%s  %s  %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04"), where, t.UserID)
			fmt.Printf("> %s\n", t.Message)
			if !t.Success {
				fmt.Println("(failed)")
				continue
			}
			fmt.Println(t.Reply)
			if len(t.Sources) > 0 {
				fmt.Printf("Sources: %s\n", strings.Join(t.Sources, ", "))
			}
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{progressCmd, chatsCmd} {
		c.Flags().String("course", "", "Only show this course")
		c.Flags().IntP("limit", "n", 20, "Number of entries to show")
	}
}
