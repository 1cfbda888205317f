package config

import (
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/spf13/viper"
)

const (
	EnvPrefix         = "JOBPULSE"
	DefaultTimeout    = 30 * time.Second
	DefaultRunTimeout = 5 * time.Minute
	DefaultProfile    = "wiki"
)

type DocumentStore struct {
	URL     string        `mapstructure:"url"`
	Profile string        `mapstructure:"profile"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Settings is the per-run configuration of a publish
type Settings struct {
	DocumentStore   DocumentStore       `mapstructure:"document_store"`
	CredentialsFile string              `mapstructure:"credentials_file"`
	Space           string              `mapstructure:"space"`
	Title           string              `mapstructure:"title"`
	Baseline        float64             `mapstructure:"baseline"`
	TopN            int                 `mapstructure:"top_n"`
	HistoryDB       string              `mapstructure:"history_db"`
	Author          string              `mapstructure:"author"`

	// Timeout bounds a whole publish run, source loads included
	Timeout time.Duration       `mapstructure:"timeout"`
	Sources []domain.SourceSpec `mapstructure:"sources"`
}

// LoadSettings reads a YAML settings file. Scalar keys can be overridden
// with JOBPULSE_ environment variables, e.g. JOBPULSE_DOCUMENT_STORE_URL.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("document_store.url", "")
	v.SetDefault("document_store.profile", DefaultProfile)
	v.SetDefault("document_store.timeout", DefaultTimeout)
	v.SetDefault("credentials_file", "")
	v.SetDefault("space", "")
	v.SetDefault("title", "")
	v.SetDefault("baseline", 0)
	v.SetDefault("top_n", 4)
	v.SetDefault("history_db", "")
	v.SetDefault("author", "")
	v.SetDefault("timeout", DefaultRunTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	for i := range settings.Sources {
		src := &settings.Sources[i]
		src.Tag = strings.TrimSpace(src.Tag)
		if src.Kind == "" {
			src.Kind = inferKind(src.Path)
		}
	}

	return &settings, nil
}

// DefaultAuthor signs reports when neither the settings nor the OS name a user
const DefaultAuthor = "job-pulse"

var currentUser = user.Current

// AuthorOrDefault returns the configured author, falling back to the current
// OS user and then DefaultAuthor.
func (s *Settings) AuthorOrDefault() string {
	if s.Author != "" {
		return s.Author
	}
	if usr, err := currentUser(); err == nil && usr.Username != "" {
		return usr.Username
	}
	return DefaultAuthor
}

// Validate checks the fields a publish needs. Document store fields are
// only required when the run writes remotely.
func (s *Settings) Validate(simulate bool) error {
	if s.Title == "" {
		return fmt.Errorf("title is required")
	}
	if s.TopN < 1 {
		return fmt.Errorf("top_n must be at least 1, got %d", s.TopN)
	}
	if len(s.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	seen := make(map[string]struct{}, len(s.Sources))
	for i, src := range s.Sources {
		if src.Tag == "" {
			return fmt.Errorf("source %d has no tag", i)
		}
		if _, dup := seen[src.Tag]; dup {
			return fmt.Errorf("source tag %q is configured twice", src.Tag)
		}
		seen[src.Tag] = struct{}{}
		if src.Columns.Date == "" || src.Columns.Value == "" {
			return fmt.Errorf("source %q needs date and value column mappings", src.Tag)
		}
	}
	if simulate {
		return nil
	}
	if s.Space == "" {
		return fmt.Errorf("space is required")
	}
	if s.DocumentStore.URL == "" {
		return fmt.Errorf("document_store.url is required")
	}
	return nil
}

func inferKind(path string) domain.SourceKind {
	switch {
	case strings.HasPrefix(path, "s3://"):
		return domain.SourceKindS3
	case strings.HasSuffix(strings.ToLower(path), ".parquet"):
		return domain.SourceKindParquet
	default:
		return domain.SourceKindCSV
	}
}
