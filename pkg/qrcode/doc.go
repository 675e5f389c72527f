// Package qrcode renders otpauth enrollment URIs as PNG QR codes, either as
// raw bytes or as a data URL for an <img> tag.
package qrcode
