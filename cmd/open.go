package cmd

import (
	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/phnplatform/studyterm/internal/app"
	"github.com/phnplatform/studyterm/internal/screens/course"
	quizscreen "github.com/phnplatform/studyterm/internal/screens/quiz"
)

var openCmd = &cobra.Command{
	Use:   "open <courseID> [contentID]",
	Short: "Open a course, optionally at a specific item",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCourse,
}

var quizCmd = &cobra.Command{
	Use:   "quiz <courseID> <quizID>",
	Short: "Take a single quiz and exit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer sess.Close()

		q := quizscreen.New(args[0], args[1], quizscreen.Options{
			Runner: sess.exec,
			Log:    sess.log,
			Exit:   tea.Quit,
		})
		return app.Run(app.Options{Initial: q, Log: sess.log})
	},
}

// runCourse launches the course screen.
func runCourse(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	opts := course.Options{
		Loader: sess.exec,
		Log:    sess.log,
		Title:  sess.title,
	}
	if len(args) > 1 {
		opts.ContentID = args[1]
	}
	return app.Run(app.Options{Initial: course.New(args[0], opts), Log: sess.log})
}
