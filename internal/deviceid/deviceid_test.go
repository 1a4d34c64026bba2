package deviceid

import (
	"errors"
	"testing"

	"github.com/illarion/credvault/internal/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
)

func TestStatic(t *testing.T) {
	a, err := Static([]byte("device-a")).DeviceID()
	require.NoError(t, err)
	assert.Len(t, a, Size)

	again, err := Static([]byte("device-a")).DeviceID()
	require.NoError(t, err)
	assert.Equal(t, a, again)

	b, err := Static([]byte("device-b")).DeviceID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable().DeviceID()
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestKeyringStableAcrossInstances(t *testing.T) {
	gokeyring.MockInit()
	store := keyring.New("deviceid-test")

	first, err := NewKeyring(store).DeviceID()
	require.NoError(t, err)
	assert.Len(t, first, Size)

	second, err := NewKeyring(store).DeviceID()
	require.NoError(t, err)
	assert.Equal(t, first, second, "identifier must survive a restart")
}

func TestKeyringCorruptValue(t *testing.T) {
	gokeyring.MockInit()
	store := keyring.New("deviceid-test")
	require.NoError(t, store.Save(keyringAccount, "not-a-uuid"))

	_, err := NewKeyring(store).DeviceID()
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestKeyringBackendError(t *testing.T) {
	gokeyring.MockInitWithError(errors.New("no dbus"))
	defer gokeyring.MockInit()

	_, err := NewKeyring(keyring.New("deviceid-test")).DeviceID()
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestKeyringProvisioned(t *testing.T) {
	gokeyring.MockInit()
	k := NewKeyring(keyring.New("deviceid-test"))

	assert.False(t, k.Provisioned())
	assert.False(t, k.Provisioned(), "checking must not create an identifier")

	_, err := k.DeviceID()
	require.NoError(t, err)
	assert.True(t, k.Provisioned())
}
