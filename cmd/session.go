package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/phnplatform/studyterm/internal/backend"
	"github.com/phnplatform/studyterm/internal/backend/local"
	"github.com/phnplatform/studyterm/internal/backend/remote"
	"github.com/phnplatform/studyterm/internal/config"
	"github.com/phnplatform/studyterm/internal/executor"
	"github.com/phnplatform/studyterm/internal/llm"
	"github.com/phnplatform/studyterm/internal/logging"
	"github.com/phnplatform/studyterm/internal/media"
	"github.com/phnplatform/studyterm/internal/store"
)

// session holds everything a TUI command needs.
type session struct {
	cfg     config.Config
	log     *zap.Logger
	backend backend.Backend
	exec    *executor.Executor
	// title is the course title when it is known up front (local mode).
	title string
}

func (s *session) Close() {
	if err := s.backend.Close(); err != nil {
		s.log.Warn("close backend", zap.Error(err))
	}
	_ = s.log.Sync()
}

// loadConfig layers flags over the file and environment. It does not
// validate: inspection commands only need the store.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	override := func(flag string, dst *string) {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			*dst = v
		}
	}
	override("mode", &cfg.Backend.Mode)
	override("api-url", &cfg.Backend.APIURL)
	override("token", &cfg.Backend.Token)
	override("course-file", &cfg.Local.CourseFile)
	override("db", &cfg.Local.DBPath)
	override("log-level", &cfg.Log.Level)
	return cfg, nil
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	log.Info("starting", zap.String("version", version), zap.String("mode", cfg.Backend.Mode))

	s := &session{cfg: cfg, log: log}
	switch cfg.Backend.Mode {
	case config.ModeLocal:
		b, title, err := openLocal(cmd.Context(), cmd, cfg, log)
		if err != nil {
			return nil, err
		}
		s.backend, s.title = b, title
	default:
		c, err := remote.New(remote.Options{
			APIURL:        cfg.Backend.APIURL,
			ChatbotURL:    cfg.Backend.ChatbotURL,
			Token:         cfg.Backend.Token,
			Timeout:       cfg.Backend.Timeout.Duration,
			ProgressRate:  cfg.Backend.ProgressRate,
			ProgressBurst: cfg.Backend.ProgressBurst,
			Log:           log.Named("remote"),
		})
		if err != nil {
			return nil, err
		}
		if c.UserID() == "" {
			log.Warn("token carries no subject; assistant requests are anonymous")
		}
		s.backend = c
	}

	opts := []executor.Option{executor.WithTimeout(cfg.Backend.Timeout.Duration)}
	if cfg.Local.Probe {
		opts = append(opts, executor.WithProber(media.FFProbe{}))
	}
	s.exec = executor.New(s.backend, log.Named("executor"), opts...)
	return s, nil
}

// openLocal loads the course file and opens the store concurrently, then
// attaches an LLM provider when one can be discovered.
func openLocal(ctx context.Context, cmd *cobra.Command, cfg config.Config, log *zap.Logger) (*local.Backend, string, error) {
	dbPath, err := resolveDBPath(cmd, cfg.Local.DBPath)
	if err != nil {
		return nil, "", fmt.Errorf("resolve DB path: %w", err)
	}

	var (
		course *local.Course
		st     *store.Store
	)
	var g errgroup.Group
	g.Go(func() error {
		c, err := local.LoadCourse(cfg.Local.CourseFile)
		course = c
		return err
	})
	g.Go(func() error {
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		st = s
		return nil
	})
	if err := g.Wait(); err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, "", err
	}

	var provider llm.Provider
	llmCfg := cfg.LLM
	if llmCfg.Discover() {
		provider, err = llm.NewProvider(ctx, llmCfg, st.EventRepo(), log.Named("llm"))
		if err != nil {
			log.Warn("LLM provider unavailable; assistant disabled", zap.Error(err))
			provider = nil
		}
	} else {
		log.Info("no LLM provider configured; assistant disabled")
	}

	var limiter *rate.Limiter
	if cfg.Backend.ProgressRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Backend.ProgressRate), max(cfg.Backend.ProgressBurst, 1))
	}

	b := local.New(local.Deps{
		Course:          course,
		Progress:        st.ProgressRepo(),
		Quizzes:         st.QuizRepo(),
		Chats:           st.ChatRepo(),
		Provider:        provider,
		Closer:          st,
		UserID:          localUser(),
		ProgressLimiter: limiter,
		Log:             log.Named("local"),
	})
	return b, course.Title, nil
}

func localUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "learner"
}

// openStore opens the local database for the inspection commands.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cmd, cfg.Local.DBPath)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no local data at %s", dbPath)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
