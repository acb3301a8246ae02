package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/wortschatz/internal/app"
	"codeberg.org/snonux/wortschatz/internal/cli"
)

func main() {
	flags := cli.NewFlags()

	rootCmd := cli.CreateRootCommand(flags)

	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	rootCmd.AddCommand(serveCommand(flags))
	rootCmd.AddCommand(workerCommand(flags))
	rootCmd.AddCommand(submitCommand(flags))
	rootCmd.AddCommand(exportCommand(flags))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serveCommand(flags *cli.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := app.New(flags)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.RunServe(ctx)
		},
	}
	cmd.Flags().StringVar(&flags.Listen, "listen", flags.Listen, "HTTP listen address")
	cmd.Flags().StringVar(&flags.ExportTTL, "export-ttl", flags.ExportTTL, "Retention of exported deck artifacts")
	cmd.Flags().BoolVar(&flags.EmbeddedWorker, "embedded-worker", false, "Run the worker pool in-process on an in-memory queue (no Redis)")
	cmd.Flags().BoolVar(&flags.SkipAudio, "skip-audio", false, "Skip pronunciation audio synthesis (embedded worker)")

	viper.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))
	return cmd
}

func workerCommand(flags *cli.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the enrichment worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := app.New(flags)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.RunWorker(ctx)
		},
	}
	cmd.Flags().IntVar(&flags.Concurrency, "concurrency", flags.Concurrency, "Number of consumer goroutines")
	cmd.Flags().IntVar(&flags.BatchSize, "batch-size", flags.BatchSize, "Messages leased per receive")
	cmd.Flags().BoolVar(&flags.SkipAudio, "skip-audio", false, "Skip pronunciation audio synthesis")
	cmd.Flags().IntVar(&flags.ExampleCount, "examples", flags.ExampleCount, "Usage examples to request per entry")
	cmd.Flags().StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	cmd.Flags().StringVar(&flags.OpenAIVoice, "openai-voice", "", "OpenAI voice (default: alloy)")
	cmd.Flags().Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0)")
	cmd.Flags().StringVar(&flags.OpenAIInstruction, "openai-instruction", "", "Voice instructions for gpt-4o-mini-tts")

	viper.BindPFlag("worker.concurrency", cmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("queue.batch", cmd.Flags().Lookup("batch-size"))
	viper.BindPFlag("generation.examples", cmd.Flags().Lookup("examples"))
	viper.BindPFlag("audio.openai_model", cmd.Flags().Lookup("openai-model"))
	viper.BindPFlag("audio.openai_voice", cmd.Flags().Lookup("openai-voice"))
	viper.BindPFlag("audio.openai_speed", cmd.Flags().Lookup("openai-speed"))
	viper.BindPFlag("audio.openai_instruction", cmd.Flags().Lookup("openai-instruction"))
	return cmd
}

func submitCommand(flags *cli.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit [query...]",
		Short: "Enqueue words or phrases for enrichment",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := app.New(flags)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.RunSubmit(ctx, args)
		},
	}
	cmd.Flags().StringVar(&flags.Owner, "owner", "", "Owner of the submitted entries")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Submit queries from file (one per line)")
	cmd.Flags().StringVar(&flags.Level, "level", "", "Save this CEFR level as the owner's preference first")
	return cmd
}

func exportCommand(flags *cli.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Compile an owner's entries into an Anki package",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := app.New(flags)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.RunExport(ctx)
		},
	}
	cmd.Flags().StringVar(&flags.Owner, "owner", "", "Owner whose entries to export")
	cmd.Flags().StringVarP(&flags.OutputFile, "output", "o", "", "Output .apkg path (default: <owner>.apkg)")
	cmd.Flags().StringVar(&flags.DeckName, "deck-name", flags.DeckName, "Deck name for the APKG export")
	return cmd
}
