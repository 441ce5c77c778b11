package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/sourcegraph/conc"

	"github.com/kazz187/jobflow/internal/config"
	"github.com/kazz187/jobflow/internal/eventbus"
	"github.com/kazz187/jobflow/internal/job"
	"github.com/kazz187/jobflow/internal/job/repositoryimpl"
	"github.com/kazz187/jobflow/internal/person"
	"github.com/kazz187/jobflow/pkg/cerr"
	"github.com/kazz187/jobflow/pkg/clog"
	"github.com/kazz187/jobflow/pkg/storage"
)

const activityPrefix = "activity"

// deps is everything a command may need, built once per invocation.
type deps struct {
	env     *config.Env
	repo    *repositoryimpl.SnapshotRepository
	bus     *eventbus.Bus
	journal *eventbus.Journal
	store   *job.Store
}

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}
	setupLogger(env)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, env, command); err != nil {
		printError(err)
		cancel()
		os.Exit(exitCode(err))
	}
}

func setupLogger(env *config.Env) {
	level := env.SlogLevel()
	var handler slog.Handler
	if env.IsLocal() {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))
}

func run(ctx context.Context, env *config.Env, command string) error {
	st, closeStorage, err := newStorage(ctx, env)
	if err != nil {
		return err
	}
	defer closeStorage()

	newID, err := job.IDFuncFor(env.IDScheme)
	if err != nil {
		return err
	}
	repo, err := repositoryimpl.NewSnapshotRepository(st, env.SnapshotKey, repositoryimpl.Format(env.SnapshotFormat))
	if err != nil {
		return err
	}

	bus := eventbus.New()
	journal := eventbus.NewJournal(st, activityPrefix)

	// Every change is journaled; the subscription is closed after the
	// command so buffered events are flushed before exit.
	subID, events := bus.Subscribe(256)
	var wg conc.WaitGroup
	wg.Go(func() { journal.Consume(context.WithoutCancel(ctx), events) })
	defer func() {
		bus.Unsubscribe(subID)
		wg.Wait()
	}()

	d := &deps{
		env:     env,
		repo:    repo,
		bus:     bus,
		journal: journal,
	}
	d.store = job.NewStore(ctx, repo, person.DemoRoster(),
		job.WithIDFunc(newID),
		job.WithPublisher(bus),
	)
	return dispatch(ctx, d, command)
}

func newStorage(ctx context.Context, env *config.Env) (storage.Storage, func(), error) {
	noop := func() {}
	switch env.StorageEnv.Type {
	case "s3":
		s, err := storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create S3 storage: %w", err)
		}
		return s, noop, nil
	case "redis":
		s, err := storage.NewRedisStorage(ctx, storage.RedisOptions{
			Addr:     env.RedisAddr,
			Password: env.RedisPassword,
			DB:       env.RedisDB,
			Prefix:   env.RedisPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis storage: %w", err)
		}
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Warn("failed to close redis storage", "error", err)
			}
		}, nil
	case "memory":
		return storage.NewMemoryStorage(), noop, nil
	default:
		s, err := storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create local storage: %w", err)
		}
		return s, noop, nil
	}
}

// exitCode maps the error code to the process exit status: 2 for rejected
// input, 3 for a missing job or task, 1 otherwise.
func exitCode(err error) int {
	switch cerr.CodeOf(err) {
	case cerr.OK:
		return 0
	case cerr.InvalidArgument:
		return 2
	case cerr.NotFound:
		return 3
	default:
		return 1
	}
}

func printError(err error) {
	red := color.New(color.FgRed, color.Bold)
	var ce *cerr.Error
	if !errors.As(err, &ce) {
		red.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	red.Fprintf(os.Stderr, "error: %s\n", ce.Msg)
	for _, d := range ce.Details {
		if d.Field != "" {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", d.Field, d.Message)
		} else {
			fmt.Fprintf(os.Stderr, "  %s\n", d.Message)
		}
	}
	if ce.Err != nil {
		slog.Debug("underlying error", "error", ce.Err)
	}
}
