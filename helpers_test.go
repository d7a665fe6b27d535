package colcrypt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColumnID(t *testing.T) {
	require.Equal(t, "users.email", ColumnID("users", "email"))
	require.Equal(t, "Users.Email", ColumnID("Users", "Email"))
}

func TestEncryptJSON_DecryptJSON(t *testing.T) {
	svc := newTestService(t)

	type Address struct {
		Street string `json:"street"`
		City   string `json:"city"`
	}
	original := Address{Street: "1 Main St", City: "Nairobi"}

	token, err := EncryptJSON(svc, "users.address", original)
	require.NoError(t, err)

	decoded, err := DecryptJSON[Address](svc, "users.address", token)
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

func TestEncryptJSON_Unmarshalable(t *testing.T) {
	svc := newTestService(t)

	_, err := EncryptJSON(svc, "t.c", make(chan int))
	require.Error(t, err)
}

func TestDecryptJSON_Errors(t *testing.T) {
	svc := newTestService(t)

	_, err := DecryptJSON[map[string]string](svc, "t.c", "!!!")
	require.True(t, IsDecryptionError(err))

	token, err := svc.Encrypt("t.c", "not json")
	require.NoError(t, err)
	_, err = DecryptJSON[map[string]string](svc, "t.c", token)
	require.Error(t, err)
	require.False(t, IsDecryptionError(err))
}

func TestEncryptInt64_DecryptInt64(t *testing.T) {
	svc := newTestService(t)

	for _, n := range []int64{0, 1, -1, 42, 1<<63 - 1, -1 << 63} {
		token, err := svc.EncryptInt64("accounts.balance", n)
		require.NoError(t, err)

		got, err := svc.DecryptInt64("accounts.balance", token)
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}

func TestDecryptInt64_NotANumber(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.Encrypt("accounts.balance", "twelve")
	require.NoError(t, err)

	_, err = svc.DecryptInt64("accounts.balance", token)
	require.Error(t, err)
}
