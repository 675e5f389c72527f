// Command totpkey prints a freshly generated TOTP_ENCRYPTION_KEY value and,
// with -secret, a new authenticator secret with its enrollment URI.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/dmitrymomot/authguard/pkg/totp"
)

func main() {
	withSecret := flag.Bool("secret", false, "also generate a TOTP secret and otpauth URI")
	account := flag.String("account", "admin", "account name used in the otpauth URI")
	issuer := flag.String("issuer", "Admin", "issuer used in the otpauth URI")
	flag.Parse()

	encodedKey, err := totp.GenerateEncodedEncryptionKey()
	if err != nil {
		log.Fatalf("Failed to generate encoded encryption key: %v", err)
	}

	fmt.Printf("TOTP_ENCRYPTION_KEY:\n%s\n", encodedKey)

	if !*withSecret {
		return
	}

	secret, err := totp.GenerateSecretKey()
	if err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}
	uri, err := totp.GetTOTPURI(totp.TOTPParams{
		Secret:      secret,
		AccountName: *account,
		Issuer:      *issuer,
	})
	if err != nil {
		log.Fatalf("Failed to build otpauth URI: %v", err)
	}

	fmt.Printf("Secret: %s\nURI:    %s\n", secret, uri)
}
