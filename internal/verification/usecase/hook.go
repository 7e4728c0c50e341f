package usecase

import (
	"context"

	"github.com/shandysiswandi/gootp/internal/verification/entity"
)

// Hook observes a generation event and may call Override to supply the pass.
type Hook func(ctx context.Context, ev *entity.GenerationEvent)

// FixedPassHook pins the pass for the given normalized addresses, e.g. test
// accounts used by app store reviewers.
func FixedPassHook(passes map[string]string) Hook {
	fixed := make(map[string]string, len(passes))
	for addr, pass := range passes {
		if norm, _ := entity.NormalizeAddress(addr); norm != "" && pass != "" {
			fixed[norm] = pass
		}
	}

	return func(_ context.Context, ev *entity.GenerationEvent) {
		if pass, ok := fixed[ev.Address]; ok {
			ev.Override(pass)
		}
	}
}

func (s *Usecase) oneTimePass(ctx context.Context, address string) (string, error) {
	ev := entity.NewGenerationEvent(address)
	for _, h := range s.hooks {
		h(ctx, ev)
	}

	if ev.Modified() {
		return ev.Pass(), nil
	}

	return s.generator.Generate()
}
