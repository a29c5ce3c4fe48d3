package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"internscan/internal/config"
)

const (
	// Service groups this app's secrets in the OS keychain.
	KeyringService = "internscan"

	// Env fallback for headless machines without a keychain.
	IMAPPasswordEnv = "INTERNSCAN_IMAP_PASSWORD"
)

// GetIMAPPassword looks in the OS keychain first, then the
// INTERNSCAN_IMAP_PASSWORD environment variable.
func GetIMAPPassword(cfg config.Config) (string, error) {
	account := IMAPKeyringAccount(cfg)
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	if pw := strings.TrimSpace(os.Getenv(IMAPPasswordEnv)); pw != "" {
		return pw, nil
	}
	return "", errors.New("IMAP password not found (set it in the keychain or via " + IMAPPasswordEnv + ")")
}

func SetIMAPPassword(cfg config.Config, password string) error {
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, IMAPKeyringAccount(cfg), password)
}

func DeleteIMAPPassword(cfg config.Config) error {
	return keyring.Delete(KeyringService, IMAPKeyringAccount(cfg))
}

func IMAPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"internscan:imap:%s@%s",
		cfg.Sources.Email.Username,
		cfg.Sources.Email.IMAPHost,
	)
}

// GetGitHubToken resolves the API token for raw README fetches. The
// env var named by sources.github.token_env wins; the keychain is the
// fallback. Missing is fine, public repos don't need one.
func GetGitHubToken(cfg config.Config) string {
	if env := strings.TrimSpace(cfg.Sources.GitHub.TokenEnv); env != "" {
		if tok := strings.TrimSpace(os.Getenv(env)); tok != "" {
			return tok
		}
	}
	tok, err := keyring.Get(KeyringService, "internscan:github-token")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(tok)
}
