package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ReposFile is an optional side file holding just the listing repos,
// so the watched-repo list can be edited without touching the main
// config (it churns far more often).
type ReposFile struct {
	Repos []Repo `yaml:"repos"`
}

func OverlayRepos(cfg *Config, reposPath string) error {
	b, err := os.ReadFile(reposPath)
	if err != nil {
		// Missing repos file must not kill a scheduled run.
		return nil
	}

	var rf ReposFile
	if err := yaml.Unmarshal(b, &rf); err != nil {
		return err
	}

	if len(rf.Repos) > 0 {
		cfg.Sources.GitHub.Repos = rf.Repos
	}
	return nil
}
