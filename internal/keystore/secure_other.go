//go:build !darwin || !cgo

package keystore

import "fmt"

type secureBackend struct{}

// NewSecureElementBackend returns a backend that reports itself unavailable;
// this platform has no device-only key storage.
func NewSecureElementBackend(string) Backend {
	return secureBackend{}
}

func (secureBackend) Name() string { return "secure-element" }

func (secureBackend) Load(string) ([]byte, error) { return nil, errUnsupported() }

func (secureBackend) Store(string, []byte) error { return errUnsupported() }

func (secureBackend) Delete(string) error { return errUnsupported() }

func errUnsupported() error {
	return fmt.Errorf("%w: not supported on this platform", ErrBackendUnavailable)
}
