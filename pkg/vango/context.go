package vango

// Context is a typed value looked up through the Owner tree.
//
//	var Theme = vango.CreateContext("light")
//
//	Theme.Provide("dark", func() {
//	    fmt.Println(Theme.Use()) // dark
//	})
//	fmt.Println(Theme.Use()) // light
type Context[T any] struct {
	defaultValue T
}

// CreateContext creates a context whose Use returns defaultValue when no
// provider is in scope.
func CreateContext[T any](defaultValue T) *Context[T] {
	return &Context[T]{defaultValue: defaultValue}
}

// Provide runs children in a new child scope of the current Owner that
// carries value for this context.
func (c *Context[T]) Provide(value T, children func()) {
	scope := NewOwner(getCurrentOwner())
	scope.SetValue(c, value)
	WithOwner(scope, children)
}

// Use returns the value of the nearest provider, or the default.
func (c *Context[T]) Use() T {
	if o := getCurrentOwner(); o != nil {
		if v, ok := o.Value(c); ok {
			if typed, ok := v.(T); ok {
				return typed
			}
		}
	}
	return c.defaultValue
}

// Default returns the value Use falls back to.
func (c *Context[T]) Default() T {
	return c.defaultValue
}

// SetContext stores value under key on the current Owner.
func SetContext(key, value any) {
	if o := getCurrentOwner(); o != nil {
		o.SetValue(key, value)
	}
}

// GetContext looks key up from the current Owner upwards. It returns nil
// when there is no Owner or no value.
func GetContext(key any) any {
	if o := getCurrentOwner(); o != nil {
		v, _ := o.Value(key)
		return v
	}
	return nil
}
