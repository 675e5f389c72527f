// Package backupcode issues short-lived one-time codes delivered out of band,
// used when the authenticator app is unavailable.
//
// A code is six digits, valid for five minutes by default and accepted once.
// Only its SHA-256 digest is stored. Issuing a new code replaces any
// outstanding one for the same account.
//
//	ch := backupcode.NewChannel(backupcode.NewMemoryStore(),
//		backupcode.WithSender(sender),
//		backupcode.WithIssuer("Admin"),
//	)
//
//	if _, err := ch.Send(ctx, accountID, "owner@example.com"); errors.Is(err, backupcode.ErrDeliveryFailed) {
//		// email outage, no code is outstanding
//	}
//
//	ok, err := ch.Verify(ctx, accountID, input)
package backupcode
