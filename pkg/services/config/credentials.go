package config

import (
	"context"
	"fmt"

	"github.com/de-tools/job-pulse/pkg/models/domain"
	"gopkg.in/ini.v1"
)

// Registry exposes the profiles of an INI credentials file.
// Each section is one profile, e.g. [wiki] or [snowflake].
type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	Values(ctx context.Context, profile string) (map[string]string, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) Values(_ context.Context, profile string) (map[string]string, error) {
	section, err := cr.cfg.GetSection(profile)
	if err != nil || len(section.Keys()) == 0 {
		return nil, fmt.Errorf("profile %s not found", profile)
	}
	return section.KeysHash(), nil
}

// WikiCredentials resolves document store credentials from a profile
// holding token and an optional username.
type WikiCredentials struct {
	Registry Registry
	Profile  string
}

func (w WikiCredentials) Resolve(ctx context.Context) (domain.Credentials, error) {
	if w.Registry == nil {
		return domain.Credentials{}, fmt.Errorf("no credentials file configured")
	}
	values, err := w.Registry.Values(ctx, w.Profile)
	if err != nil {
		return domain.Credentials{}, err
	}

	creds := domain.Credentials{
		Username: values["username"],
		Token:    values["token"],
	}
	if creds.Token == "" {
		return domain.Credentials{}, fmt.Errorf("profile %s has no token", w.Profile)
	}
	return creds, nil
}
