package credential_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authguard/pkg/credential"
)

// sha256("password")
const passwordDigest = "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"

func TestParse(t *testing.T) {
	t.Parallel()

	bcryptHash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name    string
		stored  string
		kind    credential.Kind
		wantErr error
	}{
		{name: "bcrypt 2a", stored: string(bcryptHash), kind: credential.KindAdaptiveHash},
		{name: "bcrypt 2b", stored: "$2b$" + string(bcryptHash[4:]), kind: credential.KindAdaptiveHash},
		{name: "bcrypt 2y", stored: "$2y$" + string(bcryptHash[4:]), kind: credential.KindAdaptiveHash},
		{name: "legacy digest", stored: passwordDigest, kind: credential.KindLegacyDigest},
		{name: "legacy digest upper case", stored: strings.ToUpper(passwordDigest), kind: credential.KindLegacyDigest},
		{name: "empty", stored: "", wantErr: credential.ErrUnsupportedFormat},
		{name: "short hex", stored: passwordDigest[:63], wantErr: credential.ErrUnsupportedFormat},
		{name: "non hex 64 chars", stored: strings.Repeat("z", 64), wantErr: credential.ErrUnsupportedFormat},
		{name: "plaintext", stored: "hunter2", wantErr: credential.ErrUnsupportedFormat},
		{name: "truncated bcrypt", stored: "$2a$10$abc", wantErr: credential.ErrUnsupportedFormat},
		{name: "argon2", stored: "$argon2id$v=19$m=65536,t=3,p=4$abc$def", wantErr: credential.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cred, err := credential.Parse(tt.stored)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, cred)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cred.Kind())
		})
	}
}

func TestLegacyDigest_Verify(t *testing.T) {
	t.Parallel()

	cred, err := credential.Parse(strings.ToUpper(passwordDigest))
	require.NoError(t, err)

	assert.True(t, cred.Verify("password"))
	assert.False(t, cred.Verify("Password"))
	assert.False(t, cred.Verify(""))
	assert.Equal(t, passwordDigest, cred.String())
	assert.Equal(t, passwordDigest, credential.NewLegacyDigest("password").String())
}

func TestHash(t *testing.T) {
	t.Parallel()

	cred, err := credential.Hash("correct horse battery staple", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, credential.KindAdaptiveHash, cred.Kind())
	assert.True(t, strings.HasPrefix(cred.String(), "$2a$"))
	assert.True(t, cred.Verify("correct horse battery staple"))
	assert.False(t, cred.Verify("correct horse battery"))

	parsed, err := credential.Parse(cred.String())
	require.NoError(t, err)
	assert.True(t, parsed.Verify("correct horse battery staple"))

	_, err = credential.Hash("", bcrypt.MinCost)
	assert.ErrorIs(t, err, credential.ErrEmptyPassword)

	_, err = credential.Hash(strings.Repeat("x", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, credential.ErrPasswordTooLong)
}

func TestNeedsUpgrade(t *testing.T) {
	t.Parallel()

	legacy, err := credential.Parse(passwordDigest)
	require.NoError(t, err)
	assert.True(t, credential.NeedsUpgrade(legacy, 0))

	weak, err := credential.Hash("password", bcrypt.MinCost)
	require.NoError(t, err)
	assert.False(t, credential.NeedsUpgrade(weak, 0))
	assert.False(t, credential.NeedsUpgrade(weak, bcrypt.MinCost))
	assert.True(t, credential.NeedsUpgrade(weak, bcrypt.MinCost+1))
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := credential.NewMemoryStore()

	_, err := store.GetCredential(ctx, "owner")
	assert.ErrorIs(t, err, credential.ErrNotFound)

	assert.ErrorIs(t, store.Set("owner", "plain"), credential.ErrUnsupportedFormat)
	require.NoError(t, store.Set("owner", passwordDigest))

	cred, err := store.GetCredential(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, credential.KindLegacyDigest, cred.Kind())

	upgraded, err := credential.Hash("password", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.SaveCredential(ctx, "owner", upgraded))

	cred, err = store.GetCredential(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, credential.KindAdaptiveHash, cred.Kind())
	assert.True(t, cred.Verify("password"))
}
