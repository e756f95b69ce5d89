package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sugar/internal/inspect"
	"github.com/vango-dev/sugar/internal/telemetry"
	"github.com/vango-dev/sugar/pkg/storage"
)

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [KEY...]",
		Short: "Serve persisted stores for live inspection",
		Long: `Load the stores persisted under KEY (default: inspect.stores from
sugar.json, else every key the backend lists) and serve them over HTTP.

Changes made through the server are persisted to the backend and
streamed to websocket watchers.

Endpoints:
  GET   /stores                 list stores
  GET   /stores/{name}          current state
  PATCH /stores/{name}          deep-merge a JSON object
  POST  /stores/{name}/reset    reset to the empty state
  GET   /stores/{name}/watch    websocket change stream
  GET   /metrics                Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Inspect.Addr
			}
			st, release, err := a.openStorage()
			if err != nil {
				return err
			}
			defer release()

			server, err := a.newInspector(st, args)
			if err != nil {
				return err
			}
			defer server.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			success(cmd, "Serving %d stores on http://%s", len(server.Registry().Names()), addr)
			return server.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from sugar.json)")

	return cmd
}

// newInspector defines one persisted store per key and registers it.
func (a *app) newInspector(st storage.Storage, names []string) (*inspect.Server, error) {
	if len(names) == 0 {
		names = a.cfg.Inspect.Stores
	}
	if len(names) == 0 {
		ks, err := keys(st)
		if err != nil {
			return nil, err
		}
		names = ks
	}

	registry := inspect.NewRegistry()
	for _, name := range names {
		if err := registry.Register(a.defineMapStore(name, st)); err != nil {
			return nil, err
		}
	}
	return inspect.New(inspect.Config{
		Registry: registry,
		Metrics:  telemetry.Default(),
		Logger:   a.logger,
	}), nil
}
