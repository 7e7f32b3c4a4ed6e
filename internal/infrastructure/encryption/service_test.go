package encryption

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) string {
	t.Helper()
	raw := make([]byte, 32)
	_, err := rand.Read(raw)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestNewService_KeyValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"empty key", "", true},
		{"not base64", "%%%", true},
		{"short key", base64.StdEncoding.EncodeToString([]byte("too-short")), true},
		{"valid key", newKey(t), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestService_EncryptDecrypt(t *testing.T) {
	svc, err := NewService(newKey(t))
	require.NoError(t, err)

	packed, err := svc.Encrypt("shpat_secret")
	require.NoError(t, err)

	parts := strings.Split(packed, ":")
	require.Len(t, parts, 2)
	iv, err := base64.StdEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	assert.Len(t, iv, 12)

	plain, err := svc.Decrypt(packed)
	require.NoError(t, err)
	assert.Equal(t, "shpat_secret", plain)
}

func TestService_EncryptUsesFreshIV(t *testing.T) {
	svc, err := NewService(newKey(t))
	require.NoError(t, err)

	a, err := svc.Encrypt("token")
	require.NoError(t, err)
	b, err := svc.Encrypt("token")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestService_DecryptFailures(t *testing.T) {
	svc, err := NewService(newKey(t))
	require.NoError(t, err)
	other, err := NewService(newKey(t))
	require.NoError(t, err)

	foreign, err := other.Encrypt("token")
	require.NoError(t, err)

	tests := []struct {
		name   string
		packed string
	}{
		{"plaintext token", "shpat_plain"},
		{"too many parts", "a:b:c"},
		{"bad iv encoding", "!!!:AAAA"},
		{"wrong key", foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Decrypt(tt.packed)
			assert.Error(t, err)
		})
	}
}
