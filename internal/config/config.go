package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Repo struct {
	Name   string `yaml:"name"`   // owner/repo
	Branch string `yaml:"branch"` // optional, defaults to main
}

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Sources struct {
		GitHub struct {
			Enabled  bool   `yaml:"enabled"`
			Repos    []Repo `yaml:"repos"`
			TokenEnv string `yaml:"token_env"`
		} `yaml:"github"`

		InternList struct {
			Enabled bool     `yaml:"enabled"`
			URLs    []string `yaml:"urls"`
		} `yaml:"internlist"`

		Email struct {
			Enabled          bool     `yaml:"enabled"`
			IMAPHost         string   `yaml:"imap_host"`
			IMAPPort         int      `yaml:"imap_port"`
			Username         string   `yaml:"username"`
			Mailbox          string   `yaml:"mailbox"`
			SearchSubjectAny []string `yaml:"search_subject_any"`
			MaxMessages      int      `yaml:"max_messages"`
		} `yaml:"email"`
	} `yaml:"sources"`

	Fetch struct {
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		PerHostRPS     float64 `yaml:"per_host_rps"`
		Burst          int     `yaml:"burst"`
	} `yaml:"fetch"`

	Filters struct {
		LocationsBlock []string `yaml:"locations_block"`
	} `yaml:"filters"`

	Publish struct {
		RepoDir      string `yaml:"repo_dir"`
		CSVPath      string `yaml:"csv_path"`
		Remote       string `yaml:"remote"`
		Branch       string `yaml:"branch"`
		MaxAttempts  int    `yaml:"max_attempts"`
		CommitPrefix string `yaml:"commit_prefix"`
	} `yaml:"publish"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
