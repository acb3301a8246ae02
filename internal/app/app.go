// Package app assembles the service components from configuration and
// runs the top-level modes: HTTP server, worker pool and the CLI flows.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"codeberg.org/snonux/wortschatz/internal"
	"codeberg.org/snonux/wortschatz/internal/anki"
	"codeberg.org/snonux/wortschatz/internal/audio"
	"codeberg.org/snonux/wortschatz/internal/batch"
	"codeberg.org/snonux/wortschatz/internal/blob"
	"codeberg.org/snonux/wortschatz/internal/cli"
	"codeberg.org/snonux/wortschatz/internal/entry"
	"codeberg.org/snonux/wortschatz/internal/generate"
	"codeberg.org/snonux/wortschatz/internal/queue"
	"codeberg.org/snonux/wortschatz/internal/server"
	"codeberg.org/snonux/wortschatz/internal/store"
	"codeberg.org/snonux/wortschatz/internal/submit"
	"codeberg.org/snonux/wortschatz/internal/worker"
)

// App wires the shared components every mode needs.
type App struct {
	flags *cli.Flags
	log   *zap.SugaredLogger

	store *store.Store
	queue queue.Queue
	blobs blob.Store
}

// New builds the shared components from flags and viper configuration.
func New(flags *cli.Flags) (*App, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	log := logger.Sugar()

	storePath := viper.GetString("store.path")
	if storePath == "" {
		storePath = flags.StorePath
	}
	if err := os.MkdirAll(filepath.Dir(storePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	st, err := store.Open(storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open entry store: %w", err)
	}

	blobs, err := newBlobStore(flags)
	if err != nil {
		st.Close()
		return nil, err
	}

	addr := viper.GetString("queue.redis_addr")
	if addr == "" {
		addr = flags.RedisAddr
	}
	q := queue.NewRedis(redis.NewClient(&redis.Options{Addr: addr}), viper.GetString("queue.prefix"))

	return &App{
		flags: flags,
		log:   log,
		store: st,
		queue: q,
		blobs: blobs,
	}, nil
}

func newBlobStore(flags *cli.Flags) (blob.Store, error) {
	cfg := &blob.Config{
		Backend:     viper.GetString("blob.backend"),
		Dir:         viper.GetString("blob.dir"),
		SupabaseURL: viper.GetString("blob.supabase_url"),
		SupabaseKey: viper.GetString("blob.supabase_key"),
		Bucket:      viper.GetString("blob.bucket"),
	}
	if cfg.Dir == "" {
		cfg.Dir = flags.DataDir
	}
	if cfg.Backend == "fs" || cfg.Backend == "" {
		cfg.Dir = filepath.Join(cfg.Dir, "blobs")
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create blob directory: %w", err)
		}
	}
	return blob.NewStore(cfg)
}

// Close releases the shared components.
func (a *App) Close() {
	a.store.Close()
	a.log.Sync()
}

// RunServe runs the HTTP API and the export retention sweep until ctx is
// canceled. With the embedded worker enabled the work queue is in-process
// and a worker pool runs next to the API, for single-binary deployments
// without Redis.
func (a *App) RunServe(ctx context.Context) error {
	if a.flags.EmbeddedWorker {
		a.queue = queue.NewMemory()
		w, err := a.newWorker(ctx)
		if err != nil {
			return err
		}
		go w.Run(ctx)
	}

	submitter := submit.New(a.store, a.queue)
	compiler := anki.NewCompiler(a.store, a.blobs, viper.GetString("export.deck_name"))

	srv := server.New(submitter, a.store, compiler, a.blobs, a.log)

	ttl := viper.GetDuration("export.ttl")
	if ttl <= 0 {
		if d, err := time.ParseDuration(a.flags.ExportTTL); err == nil && d > 0 {
			ttl = d
		} else {
			ttl = 24 * time.Hour
		}
	}
	go srv.RunRetentionSweep(ctx, time.Hour, ttl)

	listen := viper.GetString("server.listen")
	if listen == "" {
		listen = a.flags.Listen
	}
	return srv.Run(ctx, listen)
}

// RunWorker runs the enrichment worker pool until ctx is canceled.
func (a *App) RunWorker(ctx context.Context) error {
	w, err := a.newWorker(ctx)
	if err != nil {
		return err
	}
	w.Run(ctx)
	return nil
}

func (a *App) newWorker(ctx context.Context) (*worker.Worker, error) {
	gen, err := generate.NewGenerator(ctx, a.generationConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	var synth audio.Synthesizer
	if a.flags.SkipAudio {
		a.log.Infow("audio synthesis disabled")
	} else {
		synth, err = audio.NewSynthesizer(a.audioConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create synthesizer: %w", err)
		}
	}

	cfg := worker.DefaultConfig()
	if v := viper.GetInt("worker.concurrency"); v > 0 {
		cfg.Concurrency = v
	} else if a.flags.Concurrency > 0 {
		cfg.Concurrency = a.flags.Concurrency
	}
	if v := viper.GetInt("queue.batch"); v > 0 {
		cfg.BatchSize = v
	} else if a.flags.BatchSize > 0 {
		cfg.BatchSize = a.flags.BatchSize
	}
	if v := viper.GetDuration("queue.lease"); v > 0 {
		cfg.Lease = v
	}
	if v := viper.GetDuration("worker.stage_timeout"); v > 0 {
		cfg.StageTimeout = v
	}
	if v := viper.GetDuration("worker.poll_interval"); v > 0 {
		cfg.PollInterval = v
	}

	return worker.New(a.queue, a.store, gen, synth, a.blobs, a.log, cfg), nil
}

// RunSubmit enqueues queries from the command line or a batch file,
// reporting each outcome on stdout.
func (a *App) RunSubmit(ctx context.Context, args []string) error {
	owner := a.flags.Owner
	if owner == "" {
		return fmt.Errorf("--owner is required")
	}

	queries := args
	if a.flags.BatchFile != "" {
		fromFile, err := batch.ReadBatchFile(a.flags.BatchFile)
		if err != nil {
			return err
		}
		queries = append(queries, fromFile...)
	}
	if len(queries) == 0 {
		return fmt.Errorf("nothing to submit: pass queries or --batch")
	}

	if a.flags.Level != "" {
		prefs := entry.UserPreferences{UserID: owner, Level: a.flags.Level}
		if err := a.store.PutPreferences(ctx, prefs); err != nil {
			return fmt.Errorf("failed to save preferences: %w", err)
		}
	}

	submitter := submit.New(a.store, a.queue)

	failed := 0
	for _, q := range queries {
		result, err := submitter.Submit(ctx, owner, q)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error submitting '%s': %v\n", q, err)
			failed++
			continue
		}
		switch result.Outcome {
		case submit.AlreadyExists:
			fmt.Printf("Already enriched: %s\n", result.Query)
		default:
			fmt.Printf("Queued: %s\n", result.Query)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d submissions failed", failed, len(queries))
	}
	return nil
}

// RunExport compiles the owner's deck to a local .apkg file.
func (a *App) RunExport(ctx context.Context) error {
	owner := a.flags.Owner
	if owner == "" {
		return fmt.Errorf("--owner is required")
	}

	output := a.flags.OutputFile
	if output == "" {
		output = internal.SanitizeFilename(owner) + ".apkg"
	}

	deckName := viper.GetString("export.deck_name")
	if deckName == "" {
		deckName = a.flags.DeckName
	}
	compiler := anki.NewCompiler(a.store, a.blobs, deckName)

	cards, err := compiler.CompileToFile(ctx, owner, output)
	if err != nil {
		return err
	}

	fmt.Printf("Anki package created: %s (%d cards)\n", output, cards)
	return nil
}

func (a *App) generationConfig() *generate.Config {
	cfg := generate.DefaultConfig()
	if v := viper.GetString("generation.provider"); v != "" {
		cfg.Provider = v
	}
	if v := viper.GetString("generation.model"); v != "" {
		cfg.Model = v
	}
	if v := viper.GetString("languages.target"); v != "" {
		cfg.TargetLanguage = v
	}
	if v := viper.GetString("languages.native"); v != "" {
		cfg.NativeLanguage = v
	}
	if v := viper.GetInt("generation.examples"); v > 0 {
		cfg.ExampleCount = v
	}
	cfg.OpenAIKey = cli.GetOpenAIKey()
	cfg.GeminiKey = cli.GetGeminiKey()
	return cfg
}

func (a *App) audioConfig() *audio.Config {
	cfg := audio.DefaultConfig()
	if v := viper.GetString("audio.openai_model"); v != "" {
		cfg.OpenAIModel = v
	}
	if v := viper.GetString("audio.openai_voice"); v != "" {
		cfg.OpenAIVoice = v
	}
	if v := viper.GetFloat64("audio.openai_speed"); v > 0 {
		cfg.OpenAISpeed = v
	}
	cfg.OpenAIInstruction = viper.GetString("audio.openai_instruction")
	cfg.OpenAIKey = cli.GetOpenAIKey()
	return cfg
}
