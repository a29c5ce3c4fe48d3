package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string
	Warnings []string
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus anything an
// operator should act on before the next scheduled run.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Filters.LocationsBlock = trimList(out.Filters.LocationsBlock)
	out.Sources.InternList.URLs = trimList(out.Sources.InternList.URLs)
	out.Sources.Email.SearchSubjectAny = trimList(out.Sources.Email.SearchSubjectAny)

	// defaults
	if out.Fetch.TimeoutSeconds <= 0 {
		out.Fetch.TimeoutSeconds = 60
	}
	if out.Fetch.PerHostRPS <= 0 {
		out.Fetch.PerHostRPS = 1.0
	}
	if out.Fetch.Burst <= 0 {
		out.Fetch.Burst = 2
	}
	if out.Publish.Remote == "" {
		out.Publish.Remote = "origin"
	}
	if out.Publish.Branch == "" {
		out.Publish.Branch = "main"
	}
	if out.Publish.MaxAttempts <= 0 {
		out.Publish.MaxAttempts = 3
	}
	if strings.TrimSpace(out.Publish.CommitPrefix) == "" {
		out.Publish.CommitPrefix = "data:"
	}
	if out.Sources.Email.MaxMessages <= 0 {
		out.Sources.Email.MaxMessages = 50
	}
	for i := range out.Sources.GitHub.Repos {
		if strings.TrimSpace(out.Sources.GitHub.Repos[i].Branch) == "" {
			out.Sources.GitHub.Repos[i].Branch = "main"
		}
	}

	// ---- Validation rules ----

	if !out.Sources.GitHub.Enabled && !out.Sources.InternList.Enabled && !out.Sources.Email.Enabled {
		res.addErr("no sources enabled: enable github, internlist, or email")
	}

	if out.Sources.GitHub.Enabled && len(out.Sources.GitHub.Repos) == 0 {
		res.addErr("sources.github.repos is empty but github is enabled")
	}
	for i, r := range out.Sources.GitHub.Repos {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			res.addErr("sources.github.repos[%d].name is required", i)
			continue
		}
		if strings.Count(name, "/") != 1 {
			res.addErr("sources.github.repos[%d].name must be owner/repo, got %q", i, name)
		}
	}

	if out.Sources.InternList.Enabled && len(out.Sources.InternList.URLs) == 0 {
		res.addErr("sources.internlist.urls is empty but internlist is enabled")
	}

	if out.Sources.Email.Enabled {
		if strings.TrimSpace(out.Sources.Email.IMAPHost) == "" {
			res.addErr("sources.email.imap_host is required when email is enabled")
		}
		if out.Sources.Email.IMAPPort == 0 {
			res.addErr("sources.email.imap_port is required when email is enabled")
		}
		if strings.TrimSpace(out.Sources.Email.Username) == "" {
			res.addErr("sources.email.username is required when email is enabled")
		}
		if strings.TrimSpace(out.Sources.Email.Mailbox) == "" {
			res.addErr("sources.email.mailbox is required when email is enabled")
		}
		if len(out.Sources.Email.SearchSubjectAny) == 0 {
			res.addWarn("sources.email.search_subject_any is empty; every unseen message will be parsed")
		}
	}

	if strings.TrimSpace(out.Publish.RepoDir) == "" {
		res.addErr("publish.repo_dir is required")
	}
	if strings.TrimSpace(out.Publish.CSVPath) == "" {
		res.addErr("publish.csv_path is required")
	}
	if out.Publish.MaxAttempts > 10 {
		res.addWarn("publish.max_attempts is high (%d); conflicts that persist this long usually need a human", out.Publish.MaxAttempts)
	}

	return out, res
}
