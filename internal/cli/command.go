package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/wortschatz/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wortschatz",
		Short: "Vocabulary enrichment service",
		Long: `wortschatz turns submitted words and phrases into enriched
vocabulary entries: definitions, translations and graded example
sentences via an LLM, plus pronunciation audio via OpenAI TTS.

Examples:
  wortschatz serve                      # Run the HTTP API
  wortschatz worker                     # Run the enrichment worker pool
  wortschatz submit --owner 42 Haus     # Enqueue a word from the CLI
  wortschatz export --owner 42 -o d.apkg  # Compile an Anki deck`,
		Version: internal.Version,
	}

	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	home, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(home, ".local", "state", "wortschatz")

	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.wortschatz.yaml)")
	cmd.PersistentFlags().StringVar(&flags.StorePath, "store", filepath.Join(defaultDataDir, "entries.db"), "Path to the entry database")
	cmd.PersistentFlags().StringVar(&flags.DataDir, "data-dir", defaultDataDir, "Directory for local blob storage")
	cmd.PersistentFlags().StringVar(&flags.RedisAddr, "redis-addr", flags.RedisAddr, "Redis address for the work queue")
	cmd.PersistentFlags().StringVar(&flags.QueuePrefix, "queue-prefix", flags.QueuePrefix, "Key prefix for queue structures in Redis")

	// Generation flags shared by worker and submit
	cmd.PersistentFlags().StringVar(&flags.Provider, "provider", flags.Provider, "Content generator: openai or gemini")
	cmd.PersistentFlags().StringVar(&flags.Model, "model", "", "Generator model override (empty picks the provider default)")
	cmd.PersistentFlags().StringVar(&flags.TargetLanguage, "target-language", flags.TargetLanguage, "Language being learned")
	cmd.PersistentFlags().StringVar(&flags.NativeLanguage, "native-language", flags.NativeLanguage, "Language translations are given in")

	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("store.path", cmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("blob.dir", cmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("queue.redis_addr", cmd.PersistentFlags().Lookup("redis-addr"))
	viper.BindPFlag("queue.prefix", cmd.PersistentFlags().Lookup("queue-prefix"))
	viper.BindPFlag("generation.provider", cmd.PersistentFlags().Lookup("provider"))
	viper.BindPFlag("generation.model", cmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("languages.target", cmd.PersistentFlags().Lookup("target-language"))
	viper.BindPFlag("languages.native", cmd.PersistentFlags().Lookup("native-language"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".wortschatz" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".wortschatz")
	}

	// Environment variables
	viper.SetEnvPrefix("WORTSCHATZ")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("openai.api_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("gemini.api_key")
}
