package internal

import "sync"

// Once2 wraps a two-argument callback so only its first invocation runs.
// Engines that misbehave and report completion twice cannot advance the
// render pipeline twice.
func Once2[A, B any](fn func(A, B)) func(A, B) {
	var once sync.Once
	return func(a A, b B) {
		once.Do(func() {
			fn(a, b)
		})
	}
}
