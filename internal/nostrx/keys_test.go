package nostrx

import (
	"testing"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeysFromSecret(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)
	nsec, err := nip19.EncodePrivateKey(sk)
	require.NoError(t, err)

	for _, in := range []string{sk, nsec, "  " + nsec + "\n"} {
		k, err := KeysFromSecret(in)
		require.NoError(t, err)
		assert.Equal(t, sk, k.SecretKey)
		assert.Equal(t, pk, k.PublicKey)
		assert.True(t, ValidNpub(k.Npub))
	}

	npub, _ := NpubFromPubKey(pk)
	for _, bad := range []string{"", "abc", npub, "nsec1qqqq"} {
		_, err := KeysFromSecret(bad)
		assert.ErrorIs(t, err, common.ErrInvalidInput, bad)
	}
}

func TestNoteContentRoundTrip(t *testing.T) {
	token := "0123456789abcdef0123456789abcdef"

	content := NoteContent("thanks for visiting", token)
	assert.Equal(t, "thanks for visiting\n\nVerification Token: "+token, content)

	got, ok := TokenFromContent(content)
	require.True(t, ok)
	assert.Equal(t, token, got)

	assert.Contains(t, NoteContent("  ", token), "No message")

	_, ok = TokenFromContent("no token here")
	assert.False(t, ok)
}

func TestEncryptedNote_RecipientCanDecrypt(t *testing.T) {
	sender, err := KeysFromSecret(nostr.GeneratePrivateKey())
	require.NoError(t, err)
	recipient, err := KeysFromSecret(nostr.GeneratePrivateKey())
	require.NoError(t, err)
	outsider, err := KeysFromSecret(nostr.GeneratePrivateKey())
	require.NoError(t, err)

	evt, err := sender.EncryptedNote(recipient.PublicKey, "hello", nostr.Now())
	require.NoError(t, err)

	require.NoError(t, ValidateEvent(evt))
	ok, err := SchnorrVerifier{}.Verify(evt)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, KindEncryptedDirectMessage, evt.Kind)
	assert.Equal(t, nostr.Tags{{"p", recipient.PublicKey}}, evt.Tags)
	assert.NotContains(t, evt.Content, "hello")

	plain, err := recipient.Decrypt(sender.PublicKey, evt.Content)
	require.NoError(t, err)
	assert.Equal(t, "hello", plain)

	other, err := outsider.Decrypt(sender.PublicKey, evt.Content)
	assert.True(t, err != nil || other != "hello")
}
