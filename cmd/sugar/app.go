package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/vango-dev/sugar/internal/config"
	"github.com/vango-dev/sugar/internal/errors"
	"github.com/vango-dev/sugar/pkg/storage"
)

// app carries the state shared by every command.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func (a *app) init(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.LogLevel()
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	} else {
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	}

	a.cfg = cfg
	a.logger = slog.New(handler)
	return nil
}

// openStorage builds the configured backend and the function that
// releases it.
func (a *app) openStorage() (storage.Storage, func() error, error) {
	s := a.cfg.Storage
	noop := func() error { return nil }

	switch s.Backend {
	case config.BackendMemory:
		return storage.NewMemory(), noop, nil

	case config.BackendFile:
		f, err := storage.NewFile(a.cfg.StoragePath())
		if err != nil {
			return nil, nil, errors.New("S202").WithSubject(a.cfg.StoragePath()).Wrap(err)
		}
		return f, noop, nil

	case config.BackendSQLite:
		path := a.cfg.StoragePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, errors.New("S202").WithSubject(path).Wrap(err)
		}
		db, err := storage.OpenSQLite(path, storage.WithTable(s.Table))
		if err != nil {
			return nil, nil, errors.New("S202").WithSubject(path).Wrap(err)
		}
		return db, db.Close, nil

	case config.BackendS3:
		return storage.NewS3(newS3Client(s), s.Bucket,
			storage.WithPrefix(s.Prefix),
			storage.WithContentType(contentType(s.Format)),
		), noop, nil
	}
	return nil, nil, errors.New("S201").WithSubject("storage.backend").WithDetailf("unknown backend %q", s.Backend)
}

// newS3Client builds a client from the config and the standard AWS_*
// credential variables.
func newS3Client(s config.StorageConfig) *s3.Client {
	opts := s3.Options{
		Region:       s.Region,
		UsePathStyle: s.PathStyle,
		Credentials:  aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	}
	if s.Endpoint != "" {
		opts.BaseEndpoint = aws.String(s.Endpoint)
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	return s3.New(opts)
}

func envCredentials(context.Context) (aws.Credentials, error) {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, errors.New("S202").
			WithDetail("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set for the s3 backend")
	}
	creds := aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "sugar environment",
	}
	if exp := os.Getenv("AWS_CREDENTIAL_EXPIRATION"); exp != "" {
		if t, err := time.Parse(time.RFC3339, exp); err == nil {
			creds.CanExpire = true
			creds.Expires = t
		}
	}
	return creds, nil
}

func contentType(format string) string {
	if format == config.FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// serializer returns the configured value encoding for map states.
func (a *app) serializer() storage.Serializer[map[string]any] {
	if a.cfg.Storage.Format == config.FormatYAML {
		return storage.YAML[map[string]any]()
	}
	return storage.JSON[map[string]any]()
}
