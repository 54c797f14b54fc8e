package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

func TestHashAndCheckPassword(t *testing.T) {
	hashed := HashPassword("correct horse battery staple")
	assert.Equal(t, Argon2id, hashed.Algorithm)
	assert.False(t, hashed.IsOutdated())

	parsed, err := ParsePasswordString(hashed.String())
	require.Nil(t, err)
	assert.Equal(t, hashed, parsed)

	ok, err := CheckPassword("correct horse battery staple", parsed)
	require.Nil(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword("wrong", parsed)
	require.Nil(t, err)
	assert.False(t, ok)
}

func TestSaltsDiffer(t *testing.T) {
	a := HashPassword("hunter2")
	b := HashPassword("hunter2")
	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.Hash, b.Hash)
}

func TestDjangoPassword(t *testing.T) {
	// Same layout Django's PBKDF2PasswordHasher writes: algorithm$iterations$salt$hash
	salt := "O8VyGfcYpqNVDWbv0gx3fn"
	key := pbkdf2.Key([]byte("hoosiers"), []byte(salt), 1000, 32, sha256.New)
	encoded := "pbkdf2_sha256$1000$" + salt + "$" + base64.StdEncoding.EncodeToString(key)

	hashed, err := ParsePasswordString(encoded)
	require.Nil(t, err)
	assert.True(t, hashed.IsOutdated())

	ok, err := CheckPassword("hoosiers", hashed)
	require.Nil(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword("wildcats", hashed)
	require.Nil(t, err)
	assert.False(t, ok)
}

func TestParseArgon2idConfig(t *testing.T) {
	cfg, err := ParseArgon2idConfig("t=1,m=40960,p=1,l=64")
	require.Nil(t, err)
	assert.Equal(t, Argon2idConfig{Time: 1, Memory: 40960, Threads: 1, KeyLength: 64}, cfg)
	assert.Equal(t, "t=1,m=40960,p=1,l=64", cfg.String())

	_, err = ParseArgon2idConfig("t=1,m=40960")
	assert.NotNil(t, err)
	_, err = ParseArgon2idConfig("garbage")
	assert.NotNil(t, err)
}

func TestParsePasswordStringRejectsJunk(t *testing.T) {
	_, err := ParsePasswordString("plaintext")
	assert.NotNil(t, err)
}

func TestSessionTokens(t *testing.T) {
	assert.Len(t, makeSessionId(), 40)
	assert.Len(t, makeCSRFToken(), 30)
	assert.NotEqual(t, makeSessionId(), makeSessionId())
}
