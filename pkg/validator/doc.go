// Package validator checks decoded API requests with small composable rules:
//
//	err := validator.Apply(
//		validator.Required("account", req.Account),
//		validator.MaxLen("account", req.Account, 254),
//		validator.Required("password", req.Password),
//	)
//
// The returned ValidationErrors maps to a 422 response with per-field
// messages.
package validator
