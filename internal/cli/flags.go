package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile   string
	StorePath string
	DataDir   string

	// Server flags
	Listen         string
	ExportTTL      string
	EmbeddedWorker bool

	// Queue flags
	RedisAddr   string
	QueuePrefix string

	// Worker flags
	Concurrency int
	BatchSize   int
	SkipAudio   bool

	// Generation flags
	Provider       string
	Model          string
	TargetLanguage string
	NativeLanguage string
	ExampleCount   int

	// Export flags
	DeckName   string
	OutputFile string

	// Submit flags
	Owner     string
	BatchFile string
	Level     string

	// OpenAI TTS flags
	OpenAIModel       string
	OpenAIVoice       string
	OpenAISpeed       float64
	OpenAIInstruction string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Listen:         ":8080",
		RedisAddr:      "localhost:6379",
		QueuePrefix:    "wortschatz",
		Concurrency:    2,
		BatchSize:      1,
		Provider:       "openai",
		TargetLanguage: "German",
		NativeLanguage: "Russian",
		ExampleCount:   5,
		DeckName:       "Vocabulary",
		ExportTTL:      "24h",
		OpenAIModel:    "gpt-4o-mini-tts",
		OpenAISpeed:    1.0,
	}
}
