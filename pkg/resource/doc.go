// Package resource tracks a value loaded by an asynchronous fetcher.
//
// A Resource exposes the loaded value as a reactive read plus two side
// channels: Mutate overwrites the value locally without fetching, and
// Refetch runs the fetcher again.
//
//	user := resource.New(func(ctx context.Context) (*User, error) {
//	    return api.User(ctx, id)
//	})
//	<-user.Refetch()
//	user.Mutate(&User{Name: "optimistic"})
//
// Keyed resources refetch whenever their key changes:
//
//	id := signal.New(1)
//	user := resource.NewKeyed(id.Get, api.User)
package resource
