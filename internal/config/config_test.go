package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  data_dir: /tmp/internscan
sources:
  github:
    enabled: true
    repos:
      - name: SimplifyJobs/Summer2026-Internships
      - name: vanshb03/Summer2026-Internships
        branch: dev
  internlist:
    enabled: true
    urls:
      - https://intern-list.com
publish:
  repo_dir: /tmp/dataset
  csv_path: internships_us_canada.csv
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndNormalize(t *testing.T) {
	cfg, err := Load(writeTemp(t, sampleYAML))
	require.NoError(t, err)

	norm, res := NormalizeAndValidate(cfg)
	require.True(t, res.OK(), "errors: %v", res.Errors)

	assert.Equal(t, "main", norm.Sources.GitHub.Repos[0].Branch, "branch defaults to main")
	assert.Equal(t, "dev", norm.Sources.GitHub.Repos[1].Branch)
	assert.Equal(t, "origin", norm.Publish.Remote)
	assert.Equal(t, "main", norm.Publish.Branch)
	assert.Equal(t, 3, norm.Publish.MaxAttempts)
	assert.Equal(t, 60, norm.Fetch.TimeoutSeconds)
}

func TestValidateCatchesBadConfig(t *testing.T) {
	var cfg Config // nothing enabled, no publish target
	_, res := NormalizeAndValidate(cfg)
	require.False(t, res.OK())
	assert.Contains(t, res.Errors[0], "no sources enabled")

	cfg2, err := Load(writeTemp(t, sampleYAML))
	require.NoError(t, err)
	cfg2.Sources.GitHub.Repos[0].Name = "not-owner-repo"
	_, res2 := NormalizeAndValidate(cfg2)
	require.False(t, res2.OK())
}

func TestOverlayRepos(t *testing.T) {
	cfg, err := Load(writeTemp(t, sampleYAML))
	require.NoError(t, err)

	reposPath := filepath.Join(t.TempDir(), "repos.yml")
	require.NoError(t, os.WriteFile(reposPath, []byte("repos:\n  - name: speedyapply/2026-SWE-College-Jobs\n"), 0o644))

	require.NoError(t, OverlayRepos(&cfg, reposPath))
	require.Len(t, cfg.Sources.GitHub.Repos, 1)
	assert.Equal(t, "speedyapply/2026-SWE-College-Jobs", cfg.Sources.GitHub.Repos[0].Name)

	// missing overlay file is not an error
	require.NoError(t, OverlayRepos(&cfg, filepath.Join(t.TempDir(), "nope.yml")))
}

func TestSaveAtomicRoundTrip(t *testing.T) {
	cfg, err := Load(writeTemp(t, sampleYAML))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "config.yml")
	require.NoError(t, SaveAtomic(path, cfg))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Sources.GitHub.Repos, back.Sources.GitHub.Repos)
	assert.Equal(t, cfg.Publish.CSVPath, back.Publish.CSVPath)
}
