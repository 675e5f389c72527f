// Package lockout guards login attempts per account with exponential
// lockouts.
//
// A Guard counts consecutive failures for an account key. When the count
// reaches Config.MaxAttempts the account is locked for
// BaseDuration × Multiplier, the multiplier doubles (up to MaxMultiplier) and
// the counter starts over. A successful attempt removes the record entirely.
// While locked, further failures are ignored and callers must reject the
// attempt before doing any credential comparison.
//
// Reserve is the gate for request handlers: it checks the lock and counts
// the attempt in one atomic step, before the password or code is compared.
// A burst of concurrent requests can therefore never get more than
// MaxAttempts comparisons per lockout window.
//
// State lives behind the Store interface. MemoryStore serves a single
// process, RedisStore and PostgresStore share state between instances.
//
//	guard, err := lockout.NewGuard(lockout.NewMemoryStore(), lockout.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	status, err := guard.Reserve(ctx, email)
//	if errors.Is(err, lockout.ErrLocked) {
//		return fmt.Errorf("locked for %ds", status.RemainingSeconds())
//	}
//	if !passwordOK(password) {
//		return fmt.Errorf("%d attempts left", status.AttemptsLeft)
//	}
//	_, err = guard.RecordSuccess(ctx, email)
package lockout
