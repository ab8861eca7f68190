package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultVocabSize is the total vocabulary target, special tokens included.
const DefaultVocabSize = 65536

type Config struct {
	Input    InputConfig   `mapstructure:"input"`
	Output   OutputConfig  `mapstructure:"output"`
	Trainer  TrainerConfig `mapstructure:"trainer"`
	LogLevel string        `mapstructure:"log_level"`
}

type InputConfig struct {
	Paths         string `mapstructure:"paths"`
	Format        string `mapstructure:"format"`
	JSONLKey      string `mapstructure:"jsonl_key"`
	ParquetColumn string `mapstructure:"parquet_column"`
	Normalization string `mapstructure:"normalization"`
	ScratchDir    string `mapstructure:"scratch_dir"`
}

type OutputConfig struct {
	ModelPrefix string `mapstructure:"model_prefix"`
}

type TrainerConfig struct {
	VocabSize                 int     `mapstructure:"vocab_size"`
	ModelType                 string  `mapstructure:"model_type"`
	CharacterCoverage         float64 `mapstructure:"character_coverage"`
	ByteFallback              bool    `mapstructure:"byte_fallback"`
	NoByteFallback            bool    `mapstructure:"no_byte_fallback"`
	SpecialTokens             string  `mapstructure:"special_tokens"`
	InputSentenceSize         int     `mapstructure:"input_sentence_size"`
	ShuffleInputSentence      bool    `mapstructure:"shuffle_input_sentence"`
	SeedSentencepieceSize     int     `mapstructure:"seed_sentencepiece_size"`
	NumThreads                int     `mapstructure:"num_threads"`
	TrainExtremelyLargeCorpus bool    `mapstructure:"train_extremely_large_corpus"`
	SPMTrainPath              string  `mapstructure:"spm_train_path"`
}

// UseByteFallback reports the effective byte-fallback setting.
// --no-byte-fallback always wins over --byte-fallback.
func (t TrainerConfig) UseByteFallback() bool {
	return t.ByteFallback && !t.NoByteFallback
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Input: InputConfig{
			Paths:         "",
			Format:        FormatAuto,
			JSONLKey:      "text",
			ParquetColumn: "text",
			Normalization: NormalizationNone,
			ScratchDir:    "",
		},
		Output: OutputConfig{
			ModelPrefix: "",
		},
		Trainer: TrainerConfig{
			VocabSize:             DefaultVocabSize,
			ModelType:             ModelTypeBPE,
			CharacterCoverage:     1.0,
			ByteFallback:          true,
			SeedSentencepieceSize: 1000000,
			NumThreads:            16,
			SPMTrainPath:          "spm_train",
		},
		LogLevel: "info",
	}
}

// flagKeys maps each command line flag to its nested config key.
var flagKeys = []struct {
	flag string
	key  string
}{
	{"input", "input.paths"},
	{"input-format", "input.format"},
	{"jsonl-key", "input.jsonl_key"},
	{"parquet-column", "input.parquet_column"},
	{"normalization", "input.normalization"},
	{"scratch-dir", "input.scratch_dir"},
	{"model-prefix", "output.model_prefix"},
	{"vocab-size", "trainer.vocab_size"},
	{"model-type", "trainer.model_type"},
	{"character-coverage", "trainer.character_coverage"},
	{"byte-fallback", "trainer.byte_fallback"},
	{"no-byte-fallback", "trainer.no_byte_fallback"},
	{"special-tokens", "trainer.special_tokens"},
	{"input-sentence-size", "trainer.input_sentence_size"},
	{"shuffle-input-sentence", "trainer.shuffle_input_sentence"},
	{"seed-sentencepiece-size", "trainer.seed_sentencepiece_size"},
	{"num-threads", "trainer.num_threads"},
	{"train-extremely-large-corpus", "trainer.train_extremely_large_corpus"},
	{"spm-train", "trainer.spm_train_path"},
	{"log-level", "log_level"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("input", defaults.Input.Paths,
		"Input file(s) or directories, comma-separated. Directories are searched recursively for .txt and .jsonl files")
	fs.String("input-format", defaults.Input.Format, "Input format: auto|txt|jsonl|parquet (auto detects from extension)")
	fs.String("jsonl-key", defaults.Input.JSONLKey, "Key holding the text in JSONL records")
	fs.String("parquet-column", defaults.Input.ParquetColumn, "Column holding the text in parquet files")
	fs.String("normalization", defaults.Input.Normalization, "Unicode normalization applied to collected lines: none|nfc|nfkc")
	fs.String("scratch-dir", defaults.Input.ScratchDir, "Directory for the temporary corpus file (default: OS temp dir)")
	fs.String("model-prefix", defaults.Output.ModelPrefix, "Output prefix; writes {prefix}.model and {prefix}.vocab")
	fs.Int("vocab-size", defaults.Trainer.VocabSize,
		"Total vocabulary size target; the trainer gets vocab-size minus the special token count")
	fs.String("model-type", defaults.Trainer.ModelType, "Model type: unigram|bpe|char|word")
	fs.Float64("character-coverage", defaults.Trainer.CharacterCoverage, "Character coverage for vocabulary building")
	fs.Bool("byte-fallback", defaults.Trainer.ByteFallback, "Enable byte fallback for unknown characters")
	fs.Bool("no-byte-fallback", defaults.Trainer.NoByteFallback, "Disable byte fallback for unknown characters")
	fs.String("special-tokens", defaults.Trainer.SpecialTokens,
		"Text file with one special token per line, added as user_defined_symbols")
	fs.Int("input-sentence-size", defaults.Trainer.InputSentenceSize, "Maximum number of sentences to use (0 = all)")
	fs.Bool("shuffle-input-sentence", defaults.Trainer.ShuffleInputSentence, "Randomly shuffle input sentences")
	fs.Int("seed-sentencepiece-size", defaults.Trainer.SeedSentencepieceSize, "Seed sentencepiece size")
	fs.Int("num-threads", defaults.Trainer.NumThreads, "Number of trainer threads")
	fs.Bool("train-extremely-large-corpus", defaults.Trainer.TrainExtremelyLargeCorpus,
		"Enable trainer mode for extremely large corpora (uses more memory)")
	fs.String("spm-train", defaults.Trainer.SPMTrainPath, "Path to the spm_train executable")
	fs.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("SPMVOCAB")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("spmvocab")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, fk := range flagKeys {
		f := fs.Lookup(fk.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(fk.key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", fk.flag, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("input.paths", c.Input.Paths)
	v.SetDefault("input.format", c.Input.Format)
	v.SetDefault("input.jsonl_key", c.Input.JSONLKey)
	v.SetDefault("input.parquet_column", c.Input.ParquetColumn)
	v.SetDefault("input.normalization", c.Input.Normalization)
	v.SetDefault("input.scratch_dir", c.Input.ScratchDir)
	v.SetDefault("output.model_prefix", c.Output.ModelPrefix)
	v.SetDefault("trainer.vocab_size", c.Trainer.VocabSize)
	v.SetDefault("trainer.model_type", c.Trainer.ModelType)
	v.SetDefault("trainer.character_coverage", c.Trainer.CharacterCoverage)
	v.SetDefault("trainer.byte_fallback", c.Trainer.ByteFallback)
	v.SetDefault("trainer.no_byte_fallback", c.Trainer.NoByteFallback)
	v.SetDefault("trainer.special_tokens", c.Trainer.SpecialTokens)
	v.SetDefault("trainer.input_sentence_size", c.Trainer.InputSentenceSize)
	v.SetDefault("trainer.shuffle_input_sentence", c.Trainer.ShuffleInputSentence)
	v.SetDefault("trainer.seed_sentencepiece_size", c.Trainer.SeedSentencepieceSize)
	v.SetDefault("trainer.num_threads", c.Trainer.NumThreads)
	v.SetDefault("trainer.train_extremely_large_corpus", c.Trainer.TrainExtremelyLargeCorpus)
	v.SetDefault("trainer.spm_train_path", c.Trainer.SPMTrainPath)
	v.SetDefault("log_level", c.LogLevel)
}

// normalize canonicalizes the choice-valued settings and rejects values
// outside their allowed sets.
func (c *Config) normalize() error {
	format, err := NormalizeInputFormat(c.Input.Format)
	if err != nil {
		return err
	}
	c.Input.Format = format

	form, err := NormalizeNormalization(c.Input.Normalization)
	if err != nil {
		return err
	}
	c.Input.Normalization = form

	modelType, err := NormalizeModelType(c.Trainer.ModelType)
	if err != nil {
		return err
	}
	c.Trainer.ModelType = modelType

	return nil
}

// ValidateTrain checks the settings a full training run cannot do without.
func (c Config) ValidateTrain() error { return c.require(true, true) }

// ValidateCollect checks the settings corpus collection needs.
func (c Config) ValidateCollect() error { return c.require(true, false) }

// ValidateVerify checks the settings model verification needs.
func (c Config) ValidateVerify() error { return c.require(false, true) }

func (c Config) require(input, prefix bool) error {
	var missing []string
	if input && strings.TrimSpace(c.Input.Paths) == "" {
		missing = append(missing, `"input"`)
	}
	if prefix && strings.TrimSpace(c.Output.ModelPrefix) == "" {
		missing = append(missing, `"model-prefix"`)
	}
	if len(missing) > 0 {
		return fmt.Errorf("required flag(s) %s not set", strings.Join(missing, ", "))
	}
	return nil
}

// ParseLogLevel maps a level name to its slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}
