package scheduler

import "sync"

// Prefs holds the per-user escalation switch. It lives for the process
// lifetime only; a restart resets every user to the configured default.
type Prefs struct {
	mu             sync.RWMutex
	defaultEnabled bool
	overrides      map[int64]bool
}

func NewPrefs(defaultEnabled bool) *Prefs {
	return &Prefs{
		defaultEnabled: defaultEnabled,
		overrides:      make(map[int64]bool),
	}
}

// Enabled reports whether repeat reminders are on for the user.
func (p *Prefs) Enabled(usr int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if v, ok := p.overrides[usr]; ok {
		return v
	}
	return p.defaultEnabled
}

// Toggle flips the user's switch and returns the new value.
func (p *Prefs) Toggle(usr int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, ok := p.overrides[usr]
	if !ok {
		v = p.defaultEnabled
	}
	p.overrides[usr] = !v
	return !v
}
