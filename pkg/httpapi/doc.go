// Package httpapi exposes sign-in, second-factor verification and
// two-factor management over JSON.
//
// Public routes:
//
//	POST /login            {account, password}
//	POST /login/2fa        {pending_token, code}
//	POST /2fa/backup       {pending_token}
//	GET  /2fa/remaining    Authorization: Bearer <pending or session token>
//	GET  /healthz
//
// Routes behind a session bearer token:
//
//	GET    /2fa
//	POST   /2fa/setup
//	POST   /2fa/confirm    {secret, code, backup_email}
//	DELETE /2fa
//	POST   /session/refresh
//
// Lockouts answer 423 with Retry-After, bad credentials and codes 401 and an
// email outage while sending a backup code 503. Every body is an Envelope.
package httpapi
