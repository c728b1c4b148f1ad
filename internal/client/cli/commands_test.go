package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/proofofplace/internal/client/config"
	"github.com/dmitrijs2005/proofofplace/internal/client/services"
	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/dmitrijs2005/proofofplace/internal/nostrx"
	gs "github.com/dmitrijs2005/proofofplace/internal/server/grpc"
	"github.com/dmitrijs2005/proofofplace/internal/server/models"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	attested services.AttestInput
	attestBy *nostrx.Keys
	err      error
	pingErr  error
	closed   bool
}

func (f *fakeService) Attest(_ context.Context, k *nostrx.Keys, in services.AttestInput) (*services.Attestation, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.attestBy, f.attested = k, in
	return &services.Attestation{VerificationID: "v1", NoteID: "n1", VerificationURL: "https://pop.example/note/n1"}, nil
}

func (f *fakeService) Open(_ context.Context, _ *nostrx.Keys, id string) (*services.OpenedNote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.OpenedNote{
		Note: &gs.VerificationResponse{
			Verification: &models.Verification{ID: "v1", MerchantName: "Cafe", MerchantAddress: "1 Main St", Status: common.StatusPending},
			Note:         &models.Note{ID: id, SenderNpub: "npub1sender"},
		},
		Plaintext: "hi\n\nVerification Token: tok",
		Token:     "tok",
	}, nil
}

func (f *fakeService) Redeem(context.Context, *nostrx.Keys, string) (*gs.VerifyResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &gs.VerifyResponse{Message: "Verification successful"}, nil
}

func (f *fakeService) Status(_ context.Context, id string) (*gs.VerificationResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &gs.VerificationResponse{Verification: &models.Verification{
		ID: id, Status: common.StatusVerified, MerchantName: "Cafe", CreatedBy: "npub1sender", VerifiedAt: &at,
	}}, nil
}

func (f *fakeService) Ping(context.Context) error { return f.pingErr }
func (f *fakeService) Close() error               { f.closed = true; return nil }

func newTestApp(t *testing.T, svc *fakeService, input string) (*App, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	return &App{
		config:  &config.Config{RequestTimeout: time.Second},
		service: svc,
		reader:  bufio.NewReader(strings.NewReader(input)),
		out:     out,
	}, out
}

func testKeys(t *testing.T) *nostrx.Keys {
	t.Helper()
	k, err := nostrx.KeysFromSecret(nostr.GeneratePrivateKey())
	require.NoError(t, err)
	return k
}

func TestLoginLogout(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	nsec, err := nip19.EncodePrivateKey(sk)
	require.NoError(t, err)

	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) { return []byte(nsec), nil }

	app, out := newTestApp(t, &fakeService{}, "")
	require.NoError(t, app.Login(context.Background()))
	require.True(t, app.isLoggedIn())
	assert.Equal(t, sk, app.keys.SecretKey)
	assert.Contains(t, out.String(), "Logged in as npub1")
	assert.Contains(t, app.getStatus(), "npub1")

	require.NoError(t, app.WhoAmI(context.Background()))
	require.NoError(t, app.Logout(context.Background()))
	assert.False(t, app.isLoggedIn())
	assert.ErrorIs(t, app.WhoAmI(context.Background()), errNotLoggedIn)

	readPassword = func(int) ([]byte, error) { return []byte("garbage"), nil }
	assert.ErrorIs(t, app.Login(context.Background()), common.ErrInvalidInput)
}

func TestAttest_Prompts(t *testing.T) {
	recipient := testKeys(t)
	svc := &fakeService{}
	app, out := newTestApp(t, svc, recipient.Npub+"\nCorner Cafe\n1 Main St\nthanks\nfor visiting\n\n")
	app.keys = testKeys(t)

	require.NoError(t, app.Attest(context.Background()))

	assert.Equal(t, services.AttestInput{
		RecipientNpub:   recipient.Npub,
		MerchantName:    "Corner Cafe",
		MerchantAddress: "1 Main St",
		CustomMessage:   "thanks\nfor visiting",
	}, svc.attested)
	assert.Same(t, app.keys, svc.attestBy)
	assert.Contains(t, out.String(), "https://pop.example/note/n1")
}

func TestAttest_RequiresLoginAndValidNpub(t *testing.T) {
	app, _ := newTestApp(t, &fakeService{}, "npub1bad\n")
	assert.ErrorIs(t, app.Attest(context.Background()), errNotLoggedIn)

	app.keys = testKeys(t)
	assert.ErrorIs(t, app.Attest(context.Background()), common.ErrInvalidInput)
}

func TestOpenRedeemStatus(t *testing.T) {
	app, out := newTestApp(t, &fakeService{}, "")
	app.keys = testKeys(t)
	ctx := context.Background()

	require.NoError(t, app.Open(ctx, "n1"))
	assert.Contains(t, out.String(), "From npub1sender at Cafe (1 Main St)")
	assert.Contains(t, out.String(), "Verification Token: tok")

	require.NoError(t, app.Redeem(ctx, "n1"))
	assert.Contains(t, out.String(), "Verification successful")

	require.NoError(t, app.Status(ctx, "v1"))
	assert.Contains(t, out.String(), "Attestor: npub1sender")
	assert.Contains(t, out.String(), "Verified: 2025-01-02 03:04:05 UTC")
}

func TestCommands_PrintErrors(t *testing.T) {
	app, out := newTestApp(t, &fakeService{err: common.ErrAlreadyUsed}, "")
	app.keys = testKeys(t)

	assert.ErrorIs(t, app.Redeem(context.Background(), "n1"), common.ErrAlreadyUsed)
	assert.Contains(t, out.String(), "Error: token has already been used")
}

func TestCheckOnline_SwitchesMode(t *testing.T) {
	svc := &fakeService{}
	app, _ := newTestApp(t, svc, "")

	app.checkOnline(context.Background())
	assert.Equal(t, ModeOnline, app.Mode)

	svc.pingErr = errors.New("down")
	app.checkOnline(context.Background())
	assert.Equal(t, ModeOffline, app.Mode)
	assert.Equal(t, "(offline)", app.getStatus())
}

func TestStartOnlineStatusWatcher_StopsOnCancel(t *testing.T) {
	app, _ := newTestApp(t, &fakeService{}, "")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		app.StartOnlineStatusWatcher(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewApp_SecretFromConfig(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	app, err := NewApp(&config.Config{ServerEndpointAddr: "127.0.0.1:1", SecretKey: sk})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.service.Close() })
	assert.True(t, app.isLoggedIn())

	_, err = NewApp(&config.Config{ServerEndpointAddr: "127.0.0.1:1", SecretKey: "bad"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
