package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/proofofplace/internal/client/services"
	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/dmitrijs2005/proofofplace/internal/nostrx"
)

var errNotLoggedIn = errors.New("login first")

func (a *App) Login(ctx context.Context) error {
	secret, err := GetSecret(a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	k, err := nostrx.KeysFromSecret(secret)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	a.keys = k
	fmt.Fprintln(a.out, "Logged in as", k.Npub)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.keys = nil
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in")
		return errNotLoggedIn
	}
	fmt.Fprintln(a.out, a.keys.Npub)
	return nil
}

// Attest prompts for the attestation details and issues it.
func (a *App) Attest(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Error:", errNotLoggedIn)
		return errNotLoggedIn
	}

	var in services.AttestInput
	var err error
	if in.RecipientNpub, err = GetSimpleText(a.reader, "Recipient npub", a.out); err != nil {
		return err
	}
	if !nostrx.ValidNpub(in.RecipientNpub) {
		fmt.Fprintln(a.out, "Error: invalid npub format")
		return common.ErrInvalidInput
	}
	if in.MerchantName, err = GetSimpleText(a.reader, "Merchant name", a.out); err != nil {
		return err
	}
	if in.MerchantAddress, err = GetSimpleText(a.reader, "Merchant address", a.out); err != nil {
		return err
	}
	if in.CustomMessage, err = GetMultiline(a.reader, "Message to the recipient", a.out); err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	att, err := a.service.Attest(ctx, a.keys, in)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	fmt.Fprintln(a.out, "Attestation created")
	fmt.Fprintln(a.out, "  verification:", att.VerificationID)
	fmt.Fprintln(a.out, "  note:        ", att.NoteID)
	fmt.Fprintln(a.out, "  url:         ", att.VerificationURL)
	return nil
}

func (a *App) Open(ctx context.Context, noteID string) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Error:", errNotLoggedIn)
		return errNotLoggedIn
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	opened, err := a.service.Open(ctx, a.keys, noteID)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	v := opened.Note.Verification
	fmt.Fprintf(a.out, "From %s at %s (%s)\n", opened.Note.Note.SenderNpub, v.MerchantName, v.MerchantAddress)
	fmt.Fprintln(a.out, "Status:", v.Status)
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, opened.Plaintext)
	return nil
}

func (a *App) Redeem(ctx context.Context, noteID string) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Error:", errNotLoggedIn)
		return errNotLoggedIn
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	res, err := a.service.Redeem(ctx, a.keys, noteID)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	fmt.Fprintln(a.out, res.Message)
	return nil
}

func (a *App) Status(ctx context.Context, verificationID string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	res, err := a.service.Status(ctx, verificationID)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	v := res.Verification
	fmt.Fprintln(a.out, "Status:  ", v.Status)
	fmt.Fprintln(a.out, "Merchant:", v.MerchantName)
	if v.CreatedBy != "" {
		fmt.Fprintln(a.out, "Attestor:", v.CreatedBy)
	}
	if v.VerifiedAt != nil {
		fmt.Fprintln(a.out, "Verified:", v.VerifiedAt.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}
