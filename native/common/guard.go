package common

import "errors"

// ErrModulePaused is returned when a guarded entry point is invoked while its
// module is paused.
var ErrModulePaused = errors.New("module paused")

// PauseView exposes the pause switches maintained by the administrative
// surface. Engines consult it read-only.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the module is paused. A nil view or empty
// module name means the module cannot be paused.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// StaticPauses is a fixed PauseView for wiring and tests.
type StaticPauses map[string]bool

// IsPaused implements the PauseView interface.
func (s StaticPauses) IsPaused(module string) bool {
	return s[module]
}
