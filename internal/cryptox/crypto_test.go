package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxpilot/docvault/internal/common"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(password, salt)
	key2 := DeriveKey(password, salt)

	assert.Equal(t, key1, key2)
	assert.Len(t, key1, KeySize)
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveKey(password, []byte("salt-1"))
	key2 := DeriveKey(password, []byte("salt-2"))
	assert.NotEqual(t, key1, key2)

	key3 := DeriveKey([]byte("other-password"), []byte("salt-1"))
	assert.NotEqual(t, key1, key3)
}

func TestVerifier(t *testing.T) {
	key := DeriveKey([]byte("pw"), []byte("salt"))
	verifier := MakeVerifier(key)

	assert.True(t, CheckVerifier(verifier, key))

	other := DeriveKey([]byte("pw2"), []byte("salt"))
	assert.False(t, CheckVerifier(verifier, other))
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	plaintext := []byte("taxable income statement 2025")

	ciphertext, tag, nonce, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	assert.Len(t, nonce, NonceSize)
	assert.Len(t, tag, TagSize)
	assert.Len(t, ciphertext, len(plaintext))
	assert.False(t, bytes.Equal(ciphertext, plaintext))

	decrypted, err := Decrypt(ciphertext, tag, nonce, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncrypt_FreshNonce(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)

	_, _, nonce1, err := Encrypt([]byte("x"), key)
	require.NoError(t, err)
	_, _, nonce2, err := Encrypt([]byte("x"), key)
	require.NoError(t, err)

	assert.NotEqual(t, nonce1, nonce2)
}

func TestDecrypt_WrongKey(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	ciphertext, tag, nonce, err := Encrypt([]byte("payload"), key)
	require.NoError(t, err)

	wrong := common.GenerateRandByteArray(KeySize)
	_, err = Decrypt(ciphertext, tag, nonce, wrong)
	assert.ErrorIs(t, err, common.ErrorDecryptionFailed)
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	ciphertext, tag, nonce, err := Encrypt([]byte("payload"), key)
	require.NoError(t, err)

	ciphertext[0] ^= 0xff
	_, err = Decrypt(ciphertext, tag, nonce, key)
	assert.ErrorIs(t, err, common.ErrorDecryptionFailed)
}

func TestDecrypt_TamperedTag(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	ciphertext, tag, nonce, err := Encrypt([]byte("payload"), key)
	require.NoError(t, err)

	tag[0] ^= 0xff
	_, err = Decrypt(ciphertext, tag, nonce, key)
	assert.ErrorIs(t, err, common.ErrorDecryptionFailed)
}
