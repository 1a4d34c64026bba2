//go:build darwin && cgo

package keystore

import (
	"fmt"

	keychain "github.com/keybase/go-keychain"
)

const securePrefix = "com.illarion.credvault.device."

// secureBackend stores keys as keychain items that are never synchronised
// and only readable on this device while it is unlocked.
type secureBackend struct {
	service string
}

// NewSecureElementBackend returns the device-only keychain backend
func NewSecureElementBackend(service string) Backend {
	return &secureBackend{service: securePrefix + service}
}

func (b *secureBackend) Name() string { return "keychain-device-only" }

func (b *secureBackend) Load(alias string) ([]byte, error) {
	data, err := keychain.GetGenericPassword(b.service, alias, "", "")
	if err == keychain.ErrorItemNotFound || (err == nil && data == nil) {
		return nil, ErrKeyNotFound
	}
	if err == keychain.ErrorInteractionNotAllowed {
		return nil, ErrTransient
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return data, nil
}

func (b *secureBackend) Store(alias string, key []byte) error {
	item := keychain.NewGenericPassword(b.service, alias, "", key, "")
	item.SetSynchronizable(keychain.SynchronizableNo)
	item.SetAccessible(keychain.AccessibleWhenUnlockedThisDeviceOnly)

	if err := keychain.AddItem(item); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (b *secureBackend) Delete(alias string) error {
	err := keychain.DeleteGenericPasswordItem(b.service, alias)
	if err == nil || err == keychain.ErrorItemNotFound {
		return nil
	}
	return err
}
