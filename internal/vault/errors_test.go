package vault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/deviceid"
	"github.com/illarion/credvault/internal/envelope"
	"github.com/illarion/credvault/internal/keystore"
	"github.com/illarion/credvault/internal/storagecipher"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		cause error
		kind  error
	}{
		{ErrAlreadyExists, ErrAlreadyExists},
		{storageError(errors.New("disk full")), ErrStorageIO},
		{fmt.Errorf("x: %w", envelope.ErrKeyMaterialUnavailable), ErrDeviceIdentityUnavailable},
		{deviceid.ErrUnavailable, ErrDeviceIdentityUnavailable},
		{envelope.ErrUnsupportedVersion, ErrUnsupportedCipherVersion},
		{storagecipher.ErrUnknownCipher, ErrUnsupportedCipherVersion},
		{envelope.ErrAuthentication, ErrAuthenticationFailure},
		{envelope.ErrWrongPassphraseOrCorrupt, ErrWrongPassphraseOrCorruptData},
		{envelope.ErrInvalidDerivedKeys, ErrWrongPassphraseOrCorruptData},
		{fmt.Errorf("%w: %w", storagecipher.ErrCryptoFailure, crypto.ErrAuthFailed), ErrWrongPassphraseOrCorruptData},
		{fmt.Errorf("%w: %w", storagecipher.ErrCryptoFailure, keystore.ErrKeyNotFound), ErrHardwareKeyUnusable},
		{storagecipher.ErrKeyPermanentlyInvalidated, ErrHardwareKeyUnusable},
		{errors.New("something else"), ErrInternal},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.kind, classify(tc.cause), "cause: %v", tc.cause)
	}
}

func TestErrorFormatting(t *testing.T) {
	err := wrap("open", "seed", ErrNotFound)
	assert.Equal(t, `open "seed": vault not found`, err.Error())
	assert.ErrorIs(t, err, ErrNotFound)

	err = wrap("open", "seed", envelope.ErrAuthentication)
	assert.Equal(t, `open "seed": authentication failure: authentication failed`, err.Error())
	assert.ErrorIs(t, err, ErrAuthenticationFailure)
	assert.ErrorIs(t, err, envelope.ErrAuthentication)

	err = wrap("list", "", storageError(errors.New("disk full")))
	assert.Equal(t, "list: storage i/o error: disk full", err.Error())

	assert.NoError(t, wrap("open", "seed", nil))
}

func TestWrapKeepsNestedKind(t *testing.T) {
	inner := wrap("create", "seed_RECOVER", envelope.ErrAuthentication)
	outer := wrap("rekey", "seed", inner)

	var ve *Error
	assert.ErrorAs(t, outer, &ve)
	assert.Equal(t, "rekey", ve.Op)
	assert.Equal(t, ErrAuthenticationFailure, ve.Kind)
	assert.ErrorIs(t, outer, envelope.ErrAuthentication)
}
