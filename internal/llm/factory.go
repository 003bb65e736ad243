package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/phnplatform/studyterm/internal/store"
)

// NewProvider builds the configured provider, wrapped as
// caller → retry → events → vendor. A nil repo skips event recording.
func NewProvider(ctx context.Context, cfg Config, repo store.EventRepo, log *zap.Logger) (Provider, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Provider == "mock" {
		return NewScripted(), nil
	}

	v := mustVendor(cfg.Provider)
	vc := *v.settings(&cfg)
	var base Provider
	var err error
	switch v.name {
	case "gemini":
		base, err = NewGemini(ctx, vc)
	case "openai":
		base, err = NewOpenAI(vc)
	case "anthropic":
		base, err = NewAnthropic(vc)
	case "openrouter":
		base, err = NewOpenRouter(vc)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", v.name, err)
	}
	log.Info("llm provider ready", zap.String("provider", v.name), zap.String("model", base.Model()))

	p := base
	if repo != nil {
		p = WithEvents(p, v.name, repo, log)
	}
	return WithRetry(p, cfg.Retry, log), nil
}
