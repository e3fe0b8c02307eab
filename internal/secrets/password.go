package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups this app's secrets in the OS keychain.
const KeyringService = "jobtracker"

// GetIMAPPassword looks up the mailbox password in the OS keychain. Used when
// the config file leaves the password blank.
func GetIMAPPassword(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("keyring account name is empty")
	}
	pw, err := keyring.Get(KeyringService, account)
	if err != nil {
		return "", fmt.Errorf("imap password not in keychain: %w", err)
	}
	if strings.TrimSpace(pw) == "" {
		return "", errors.New("imap password in keychain is empty")
	}
	return pw, nil
}

func SetIMAPPassword(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, account, password)
}

func DeleteIMAPPassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

// IMAPKeyringAccount names the keychain entry for a mailbox login.
func IMAPKeyringAccount(username, host string) string {
	return fmt.Sprintf("jobtracker:imap:%s@%s", username, host)
}
