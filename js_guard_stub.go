//go:build !js_guard

package priv

// NewJSGuard is unavailable without the js_guard build tag.
func NewJSGuard(opts ...JSGuardOption) Guard {
	_ = applyJSGuardOptions(opts)
	return nil
}

func jsGuardAvailable() bool {
	return false
}
