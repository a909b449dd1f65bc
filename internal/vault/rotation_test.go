package vault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxpilot/docvault/internal/common"
)

func TestRotateKey_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SetupEncryption(ctx, "u1", "Secr3t!!")
	require.NoError(t, err)

	_, err = env.svc.RotateKey(ctx, "u1", "wrong", "NewPass1")
	assert.ErrorIs(t, err, common.ErrorInvalidCredentials)

	// nothing touched: old password still works for uploads
	_, err = env.svc.UploadFile(ctx, "u1", "a.txt", "text/plain", []byte("x"), "Secr3t!!")
	assert.NoError(t, err)
}

func TestRotateKey_EmptyPasswords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.RotateKey(ctx, "u1", "", "new")
	assert.ErrorIs(t, err, common.ErrorInvalidInput)

	_, err = env.svc.RotateKey(ctx, "u1", "old", "")
	assert.ErrorIs(t, err, common.ErrorInvalidInput)
}

func TestRotateKey_NotConfigured(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.RotateKey(context.Background(), "u1", "old", "new")
	assert.ErrorIs(t, err, common.ErrorEncryptionNotConfigured)
}

func TestRotateKey_Scenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SetupEncryption(ctx, "u1", "Secr3t!!")
	require.NoError(t, err)

	data := common.GenerateRandByteArray(1000)
	up, err := env.svc.UploadFile(ctx, "u1", "w2.pdf", "application/pdf", data, "Secr3t!!")
	require.NoError(t, err)

	before, err := env.files.GetByID(ctx, up.ID)
	require.NoError(t, err)

	env.mock.ExpectBegin()
	env.mock.ExpectCommit()

	result, err := env.svc.RotateKey(ctx, "u1", "Secr3t!!", "NewPass1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.RotatedCount)
	assert.Empty(t, result.FailedFileIDs)
	assert.NoError(t, env.mock.ExpectationsWereMet())

	// ciphertext fully replaced, record identity preserved
	after, err := env.files.GetByID(ctx, up.ID)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.NotEqual(t, before.StoragePath, after.StoragePath)
	assert.NotEqual(t, before.Nonce, after.Nonce)
	assert.NotEqual(t, before.AuthTag, after.AuthTag)

	// old blob removed, one live blob remains
	assert.Equal(t, 1, env.blobs.Len())
	_, err = env.blobs.Get(ctx, before.StoragePath)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	// key record carries a fresh salt and rotated_at
	keyRec, err := env.keys.Get(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, keyRec.RotatedAt)

	// content preserved under the new password, old password rejected
	down, err := env.svc.DownloadFile(ctx, "u1", up.ID, "NewPass1")
	require.NoError(t, err)
	assert.Equal(t, data, down.Data)

	_, err = env.svc.DownloadFile(ctx, "u1", up.ID, "Secr3t!!")
	assert.ErrorIs(t, err, common.ErrorDecryptionFailed)
}

func TestRotateKey_ZeroFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SetupEncryption(ctx, "u1", "oldpass")
	require.NoError(t, err)

	result, err := env.svc.RotateKey(ctx, "u1", "oldpass", "newpass")
	require.NoError(t, err)
	assert.Equal(t, 0, result.RotatedCount)
	assert.Empty(t, result.FailedFileIDs)

	// the verifier was swapped even with no files
	_, err = env.svc.UploadFile(ctx, "u1", "a.txt", "text/plain", []byte("x"), "oldpass")
	assert.ErrorIs(t, err, common.ErrorInvalidCredentials)
	_, err = env.svc.UploadFile(ctx, "u1", "b.txt", "text/plain", []byte("x"), "newpass")
	assert.NoError(t, err)
}

func TestRotateKey_PartialFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SetupEncryption(ctx, "u1", "oldpass")
	require.NoError(t, err)

	good, err := env.svc.UploadFile(ctx, "u1", "good.txt", "text/plain", []byte("good data"), "oldpass")
	require.NoError(t, err)
	bad, err := env.svc.UploadFile(ctx, "u1", "bad.txt", "text/plain", []byte("bad data"), "oldpass")
	require.NoError(t, err)

	// lose the second file's blob so its rotation fails on read
	badRec, err := env.files.GetByID(ctx, bad.ID)
	require.NoError(t, err)
	require.NoError(t, env.blobs.Delete(ctx, badRec.StoragePath))

	env.mock.ExpectBegin()
	env.mock.ExpectCommit()

	result, err := env.svc.RotateKey(ctx, "u1", "oldpass", "newpass")
	require.NoError(t, err)
	assert.Equal(t, 1, result.RotatedCount)
	assert.Equal(t, []string{bad.ID}, result.FailedFileIDs)

	// the new key record was committed: the rotated file reads back
	down, err := env.svc.DownloadFile(ctx, "u1", good.ID, "newpass")
	require.NoError(t, err)
	assert.Equal(t, []byte("good data"), down.Data)
}

func TestRotateKey_FullFailure_KeepsOldKeyRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SetupEncryption(ctx, "u1", "oldpass")
	require.NoError(t, err)

	up, err := env.svc.UploadFile(ctx, "u1", "a.txt", "text/plain", []byte("data"), "oldpass")
	require.NoError(t, err)

	rec, err := env.files.GetByID(ctx, up.ID)
	require.NoError(t, err)
	require.NoError(t, env.blobs.Delete(ctx, rec.StoragePath))

	result, err := env.svc.RotateKey(ctx, "u1", "oldpass", "newpass")
	require.NoError(t, err)
	assert.Equal(t, 0, result.RotatedCount)
	assert.Equal(t, []string{up.ID}, result.FailedFileIDs)

	// the old key record is intact: old password still verifies
	keyRec, err := env.keys.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, keyRec.RotatedAt)

	_, err = env.svc.UploadFile(ctx, "u1", "b.txt", "text/plain", []byte("x"), "oldpass")
	assert.NoError(t, err)
}

func TestRotateKey_Cancelled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SetupEncryption(ctx, "u1", "oldpass")
	require.NoError(t, err)

	up, err := env.svc.UploadFile(ctx, "u1", "a.txt", "text/plain", []byte("data"), "oldpass")
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	result, err := env.svc.RotateKey(cancelled, "u1", "oldpass", "newpass")
	require.NoError(t, err)
	assert.Equal(t, 0, result.RotatedCount)
	assert.Equal(t, []string{up.ID}, result.FailedFileIDs)

	// nothing rotated, old key record stays
	down, err := env.svc.DownloadFile(ctx, "u1", up.ID, "oldpass")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), down.Data)
}

func TestRotateKey_RejectedWhileAnotherRotationRuns(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SetupEncryption(ctx, "u1", "pw123")
	require.NoError(t, err)

	require.True(t, env.svc.locks.tryExclusive("u1"))
	defer env.svc.locks.releaseExclusive("u1")

	_, err = env.svc.RotateKey(ctx, "u1", "pw123", "new")
	assert.ErrorIs(t, err, common.ErrorRotationInProgress)
}
