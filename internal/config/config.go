// Package config loads the secrets and settings of a run from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/titanous/json5"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank/desjardins"
)

const (
	EnvUserCode      = "DESJARDINS_NUMBER"
	EnvPassword      = "DESJARDINS_PASSWORD"
	EnvSecurePhrase  = "DESJARDINS_SECURE_PHRASE"
	EnvQuestions     = "DESJARDINS_QUESTIONS"
	EnvQuestionsFile = "DESJARDINS_QUESTIONS_FILE"
	EnvChallenge     = "DESJARDINS_CHALLENGE"
	EnvDumpDir       = "DESJARDINS_DUMP_DIR"
	EnvOutputDir     = "DESJARDINS_OUTPUT_DIR"
)

const DefaultEnvFile = ".env"

var ErrMissing = errors.New("missing required setting")

type Config struct {
	Credentials   bank.Credentials
	ChallengeMode desjardins.ChallengeMode
	// Where -H writes the raw pages
	DumpDir string
	// Where statements are saved
	OutputDir string
}

// Load reads envFile into the process environment, then builds the
// configuration from it. Variables already set win over the file. A missing
// default .env is not an error, a missing explicit file is.
func Load(envFile string) (*Config, error) {
	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds the configuration from a variable lookup.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	var missing []string
	require := func(key string) string {
		v := get(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		Credentials: bank.Credentials{
			UserCode:     require(EnvUserCode),
			SecurePhrase: require(EnvSecurePhrase),
		},
		DumpDir:   get(EnvDumpDir),
		OutputDir: get(EnvOutputDir),
	}
	// Passwords may legitimately start or end with spaces
	if pw, _ := lookup(EnvPassword); pw != "" {
		cfg.Credentials.Password = pw
	} else {
		missing = append(missing, EnvPassword)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	mode, err := desjardins.ParseChallengeMode(get(EnvChallenge))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvChallenge, err)
	}
	cfg.ChallengeMode = mode

	questions, err := loadQuestions(get(EnvQuestions), get(EnvQuestionsFile))
	if err != nil {
		return nil, err
	}
	cfg.Credentials.Questions = questions

	if cfg.DumpDir == "" {
		cfg.DumpDir = filepath.Join(os.TempDir(), "accesd")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = os.TempDir()
	}
	return cfg, nil
}

// loadQuestions reads the question -> answer table, inline or from a file.
// Both are JSON5 objects so the table can carry comments.
func loadQuestions(inline, file string) (map[string]string, error) {
	questions := map[string]string{}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvQuestionsFile, err)
		}
		if err := json5.Unmarshal(data, &questions); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvQuestionsFile, err)
		}
	}
	if inline != "" {
		var extra map[string]string
		if err := json5.Unmarshal([]byte(inline), &extra); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvQuestions, err)
		}
		for q, a := range extra {
			questions[q] = a
		}
	}
	return questions, nil
}
