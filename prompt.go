package swcache

import (
	"context"
	"sync"
)

// PromptOutcome is the user's answer to an install prompt.
type PromptOutcome int

const (
	OutcomeUnavailable PromptOutcome = iota // no prompt token was held
	OutcomeAccepted
	OutcomeDismissed
)

func (o PromptOutcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeDismissed:
		return "dismissed"
	default:
		return "unavailable"
	}
}

// PromptFunc shows the platform install prompt once and reports the answer.
type PromptFunc func(ctx context.Context) (PromptOutcome, error)

// InstallPrompt holds at most one deferred install prompt. The platform
// offers a token; showing it consumes the token.
type InstallPrompt struct {
	mu        sync.Mutex
	token     PromptFunc
	installed bool
}

// Offer stores fn, replacing any token not yet used. Ignored once installed.
func (p *InstallPrompt) Offer(fn PromptFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.installed {
		return
	}
	p.token = fn
}

// CanInstall reports whether Prompt would show something.
func (p *InstallPrompt) CanInstall() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token != nil && !p.installed
}

func (p *InstallPrompt) IsInstalled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.installed
}

// MarkInstalled records an install that happened outside Prompt and drops
// any held token.
func (p *InstallPrompt) MarkInstalled() {
	p.mu.Lock()
	p.installed = true
	p.token = nil
	p.mu.Unlock()
}

// Prompt consumes the token and runs it. Without a token it returns
// OutcomeUnavailable and no error. The token is gone even if fn fails.
func (p *InstallPrompt) Prompt(ctx context.Context) (PromptOutcome, error) {
	p.mu.Lock()
	fn := p.token
	p.token = nil
	p.mu.Unlock()
	if fn == nil {
		return OutcomeUnavailable, nil
	}

	out, err := fn(ctx)
	if err != nil {
		return OutcomeDismissed, err
	}
	if out == OutcomeAccepted {
		p.MarkInstalled()
	}
	return out, nil
}
