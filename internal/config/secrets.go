package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
)

// SecretAccount names the keyring entry holding the messenger secret: the
// webhook token, or the SMTP password of SMTPUser. Transports without a
// secret return "".
func (m MessengerSettings) SecretAccount() string {
	switch m.Kind {
	case MessengerWebhook:
		return SecretWebhookToken
	case MessengerSMTP:
		if m.SMTPUser == "" {
			return ""
		}
		return SecretSMTPPrefix + m.SMTPUser
	default:
		return ""
	}
}

// ResolveSecret returns the environment override when set, otherwise the
// keyring entry. A missing entry is not an error.
func (m MessengerSettings) ResolveSecret() (string, error) {
	if m.Secret != "" {
		return m.Secret, nil
	}
	account := m.SecretAccount()
	if account == "" {
		return "", nil
	}
	secret, err := keyring.Get(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrKeyringRead, err)
	}
	return secret, nil
}

// StoreSecret saves the messenger secret in the keyring.
func (m MessengerSettings) StoreSecret(secret string) error {
	account := m.SecretAccount()
	if account == "" {
		return errors.New(ErrNoSecretNeeded)
	}
	if err := keyring.Set(KeyringService, account, secret); err != nil {
		return fmt.Errorf("%s: %w", ErrKeyringWrite, err)
	}
	return nil
}

// DeleteSecret removes the messenger secret. Deleting a missing entry
// succeeds.
func (m MessengerSettings) DeleteSecret() error {
	account := m.SecretAccount()
	if account == "" {
		return nil
	}
	err := keyring.Delete(KeyringService, account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%s: %w", ErrKeyringWrite, err)
	}
	return nil
}

// ImportPassword returns the password for downloading a remote address book
// as user: GOWISHES_IMPORT_PASSWORD when set, else the keyring entry.
func ImportPassword(user string) (string, error) {
	if p := os.Getenv(EnvImportPassword); p != "" {
		return p, nil
	}
	if user == "" {
		return "", nil
	}
	secret, err := keyring.Get(KeyringService, SecretImportPrefix+user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrKeyringRead, err)
	}
	return secret, nil
}

// StoreImportPassword saves the address book password of user.
func StoreImportPassword(user, password string) error {
	if user == "" {
		return errors.New(ErrImportUserEmpty)
	}
	if err := keyring.Set(KeyringService, SecretImportPrefix+user, password); err != nil {
		return fmt.Errorf("%s: %w", ErrKeyringWrite, err)
	}
	return nil
}
