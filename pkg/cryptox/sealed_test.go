package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	ResetMasterKeyForTesting()
	t.Setenv("SONICSUITE_MASTER_KEY", "unit-test-master-key")

	sealed, err := Seal("AQBrefresh-token-value")
	require.NoError(t, err)
	require.NotEqual(t, "AQBrefresh-token-value", sealed)

	opened, err := Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "AQBrefresh-token-value", opened)
}

func TestSealProducesUniqueCiphertexts(t *testing.T) {
	ResetMasterKeyForTesting()
	t.Setenv("SONICSUITE_MASTER_KEY", "unit-test-master-key")

	a, err := Seal("same-secret")
	require.NoError(t, err)
	b, err := Seal("same-secret")
	require.NoError(t, err)

	// Random nonce per seal.
	require.NotEqual(t, a, b)
}

func TestOpenRejectsTamperedValue(t *testing.T) {
	ResetMasterKeyForTesting()
	t.Setenv("SONICSUITE_MASTER_KEY", "unit-test-master-key")

	sealed, err := Seal("secret")
	require.NoError(t, err)

	_, err = Open(sealed[:len(sealed)-2] + "xx")
	require.Error(t, err)

	_, err = Open("!!not-base64!!")
	require.Error(t, err)
}

func TestFingerprintTokenDeterministic(t *testing.T) {
	require.Equal(t, FingerprintToken("abc"), FingerprintToken("abc"))
	require.NotEqual(t, FingerprintToken("abc"), FingerprintToken("abd"))
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken(TokenSize256)
	require.NoError(t, err)
	require.Len(t, tok, 43) // 32 bytes base64url without padding

	_, err = GenerateToken(0)
	require.Error(t, err)
}
