package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sugar/internal/errors"
	"github.com/vango-dev/sugar/pkg/storage"
	"github.com/vango-dev/sugar/pkg/store"
)

// mapStore is the store shape used for persisted state of unknown type.
type mapStore = store.Handle[map[string]any, struct{}, struct{}]

// defineMapStore defines a store named key over st. Its initial state is
// empty and the persisted value, if any, is hydrated into it.
func (a *app) defineMapStore(key string, st storage.Storage) *mapStore {
	return store.Define(key, store.Setup[map[string]any, struct{}, struct{}]{
		State: map[string]any{},
		Persist: &store.Persist[map[string]any]{
			Enable:     true,
			Storage:    st,
			Key:        key,
			Serializer: a.serializer(),
			Debug:      true,
		},
		Logger: a.logger,
	})
}

func storeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Read and edit persisted store state",
		Long: `Read and edit the state persisted by sugar stores.

The backend and value format come from the "storage" section of
sugar.json.

Examples:
  sugar store ls
  sugar store get counter
  sugar store patch counter '{"count": 3}'
  sugar store dump`,
	}

	cmd.AddCommand(
		storeLsCmd(a),
		storeGetCmd(a),
		storeSetCmd(a),
		storeRmCmd(a),
		storePatchCmd(a),
		storeDumpCmd(a),
	)
	return cmd
}

// withStorage opens the backend for the duration of fn.
func (a *app) withStorage(fn func(st storage.Storage) error) error {
	st, release, err := a.openStorage()
	if err != nil {
		return err
	}
	defer release()
	return fn(st)
}

func keys(st storage.Storage) ([]string, error) {
	l, ok := st.(storage.Lister)
	if !ok {
		return nil, errors.New("S205")
	}
	ks, err := l.Keys()
	if err != nil {
		return nil, errors.New("S204").WithSubject("list").Wrap(err)
	}
	return ks, nil
}

func storeLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(func(st storage.Storage) error {
				ks, err := keys(st)
				if err != nil {
					return err
				}
				for _, k := range ks {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			})
		},
	}
}

func storeGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the raw value stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(func(st storage.Storage) error {
				v, ok, err := st.GetItem(args[0])
				if err != nil {
					return errors.New("S204").WithSubject(args[0]).Wrap(err)
				}
				if !ok {
					return errors.New("S203").WithSubject(args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}
}

func storeSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store VALUE under KEY as is",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(func(st storage.Storage) error {
				if _, err := a.serializer().Deserialize(args[1]); err != nil {
					return errors.New("S301").
						WithSubject(args[1]).
						WithDetailf("value is not a %s object", a.cfg.Storage.Format).
						Wrap(err)
				}
				if err := st.SetItem(args[0], args[1]); err != nil {
					return errors.New("S204").WithSubject(args[0]).Wrap(err)
				}
				success(cmd, "Stored %s", args[0])
				return nil
			})
		},
	}
}

func storeRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm KEY",
		Short: "Delete KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(func(st storage.Storage) error {
				r, ok := st.(storage.Remover)
				if !ok {
					return errors.New("S204").
						WithSubject(args[0]).
						WithDetailf("backend %q cannot delete keys", a.cfg.Storage.Backend)
				}
				if err := r.RemoveItem(args[0]); err != nil {
					return errors.New("S204").WithSubject(args[0]).Wrap(err)
				}
				success(cmd, "Removed %s", args[0])
				return nil
			})
		},
	}
}

func storePatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "patch KEY JSON",
		Short: "Deep-merge a JSON object into the state stored under KEY",
		Long: `Load the state stored under KEY into a store, merge the JSON object
into it and persist the result. Nested objects merge key by key; lists
and scalars are replaced. A missing KEY starts from an empty object.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(func(st storage.Storage) error {
				s := a.defineMapStore(args[0], st)
				if err := s.Patch(json.RawMessage(args[1])); err != nil {
					return errors.New("S402").WithSubject(args[0]).Wrap(err)
				}
				out, err := json.MarshalIndent(s.Peek(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
}

func storeDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print every stored value as one JSON object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(func(st storage.Storage) error {
				ks, err := keys(st)
				if err != nil {
					return err
				}
				dump := make(map[string]any, len(ks))
				for _, k := range ks {
					raw, ok, err := st.GetItem(k)
					if err != nil {
						return errors.New("S204").WithSubject(k).Wrap(err)
					}
					if !ok {
						continue
					}
					// Values that do not decode are dumped as strings.
					if v, err := a.serializer().Deserialize(raw); err == nil {
						dump[k] = v
					} else {
						dump[k] = raw
					}
				}
				out, err := json.MarshalIndent(dump, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
}
