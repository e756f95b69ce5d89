// Package provider nests scope providers around a child function.
//
//	provider.Run([]provider.Provider{
//	    provider.Value(Theme, "dark"),
//	    cart.Provider(),
//	    i18n.Provider(),
//	}, func() {
//	    render()
//	})
//
// The first provider in the list is the outermost one.
package provider

import "github.com/vango-dev/sugar/pkg/vango"

// Provider runs next inside whatever scope it establishes.
type Provider func(next func())

// Compose returns a function that runs children inside every provider,
// providers[0] outermost. nil providers are skipped.
func Compose(providers []Provider, children func()) func() {
	run := children
	for i := len(providers) - 1; i >= 0; i-- {
		p := providers[i]
		if p == nil {
			continue
		}
		inner := run
		run = func() { p(inner) }
	}
	return run
}

// Run composes providers around children and runs the result.
func Run(providers []Provider, children func()) {
	Compose(providers, children)()
}

// Value provides v for ctx to everything run inside it.
func Value[T any](ctx *vango.Context[T], v T) Provider {
	return func(next func()) {
		ctx.Provide(v, next)
	}
}

// Scope runs next under a fresh child of the current Owner and disposes it
// afterwards if dispose is true.
func Scope(dispose bool) Provider {
	return func(next func()) {
		owner := vango.NewOwner(vango.CurrentOwner())
		if dispose {
			defer owner.Dispose()
		}
		vango.WithOwner(owner, next)
	}
}
