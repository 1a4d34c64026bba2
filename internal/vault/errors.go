package vault

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/deviceid"
	"github.com/illarion/credvault/internal/envelope"
	"github.com/illarion/credvault/internal/keystore"
	"github.com/illarion/credvault/internal/storagecipher"
)

// Error kinds. Every error returned by a Vault is an *Error whose Kind is one
// of these.
var (
	ErrAlreadyExists                = errors.New("vault already exists")
	ErrNotFound                     = errors.New("vault not found")
	ErrUnsupportedCipherVersion     = errors.New("unsupported cipher version")
	ErrAuthenticationFailure        = errors.New("authentication failure")
	ErrWrongPassphraseOrCorruptData = errors.New("wrong passphrase or corrupt data")
	ErrDeviceIdentityUnavailable    = errors.New("device identity unavailable")
	ErrHardwareKeyUnusable          = errors.New("hardware key unusable")
	ErrStorageIO                    = errors.New("storage i/o error")
	ErrInvalidArgument              = errors.New("invalid argument")
	ErrInternal                     = errors.New("internal error")
)

var kinds = []error{
	ErrAlreadyExists,
	ErrNotFound,
	ErrUnsupportedCipherVersion,
	ErrAuthenticationFailure,
	ErrWrongPassphraseOrCorruptData,
	ErrDeviceIdentityUnavailable,
	ErrHardwareKeyUnusable,
	ErrStorageIO,
	ErrInvalidArgument,
	ErrInternal,
}

// errVerification is the cause when a freshly written entry does not open
// to the data it was created from.
var errVerification = errors.New("stored vault does not match input")

// Error is the single error type returned by Vault operations. It matches
// both its Kind and its cause with errors.Is. Plaintext is never attached.
type Error struct {
	Op    string
	Alias string
	Kind  error
	Err   error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Alias != "" {
		msg += " " + strconv.Quote(e.Alias)
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil && e.Err != e.Kind {
		msg += ": " + strings.TrimPrefix(e.Err.Error(), e.Kind.Error()+": ")
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// wrap turns any failure into an *Error. An *Error from a nested operation
// keeps its kind but takes the outer op and alias.
func wrap(op, alias string, err error) error {
	if err == nil {
		return nil
	}
	var ve *Error
	if errors.As(err, &ve) {
		return &Error{Op: op, Alias: alias, Kind: ve.Kind, Err: err}
	}
	return &Error{Op: op, Alias: alias, Kind: classify(err), Err: err}
}

// classify maps a cause from the lower layers onto an error kind
func classify(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}

	switch {
	case errors.Is(err, envelope.ErrKeyMaterialUnavailable),
		errors.Is(err, deviceid.ErrUnavailable):
		return ErrDeviceIdentityUnavailable
	case errors.Is(err, envelope.ErrUnsupportedVersion),
		errors.Is(err, envelope.ErrUnsupportedOperation),
		errors.Is(err, storagecipher.ErrUnknownCipher):
		return ErrUnsupportedCipherVersion
	case errors.Is(err, envelope.ErrAuthentication):
		return ErrAuthenticationFailure
	case errors.Is(err, envelope.ErrWrongPassphraseOrCorrupt),
		errors.Is(err, envelope.ErrDecryption),
		errors.Is(err, envelope.ErrInvalidDerivedKeys),
		errors.Is(err, crypto.ErrAuthFailed),
		errors.Is(err, crypto.ErrInvalidCiphertext),
		errors.Is(err, crypto.ErrInvalidPadding):
		return ErrWrongPassphraseOrCorruptData
	case errors.Is(err, storagecipher.ErrKeyPermanentlyInvalidated),
		errors.Is(err, storagecipher.ErrCryptoFailure),
		errors.Is(err, keystore.ErrKeyNotFound),
		errors.Is(err, keystore.ErrKeyInvalidated),
		errors.Is(err, keystore.ErrTransient),
		errors.Is(err, keystore.ErrBackendUnavailable):
		return ErrHardwareKeyUnusable
	default:
		return ErrInternal
	}
}

// storageError marks a persistence failure
func storageError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageIO, err)
}
