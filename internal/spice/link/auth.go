package link

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"fmt"

	protoerr "github.com/sprice/spice-client/internal/errors"
)

// MaxPasswordLen is the maximum password length, excluding the NUL
// terminator (§6: "passwords are capped at 31 bytes plus terminator").
const MaxPasswordLen = 31

// encryptPassword builds the 32-byte NUL-terminated password ticket and
// encrypts it under the server's DER-encoded RSA public key using
// RSA-OAEP-SHA1 (§4.3), using the standard library's crypto/rsa
// implementation (see DESIGN.md for why no third-party crypto package is
// used).
func encryptPassword(pubKeyDER []byte, password string) ([]byte, error) {
	if len(password) > MaxPasswordLen {
		return nil, protoerr.NewLinkError("encrypt password", fmt.Errorf("password exceeds %d bytes", MaxPasswordLen))
	}
	ticket := make([]byte, MaxPasswordLen+1)
	copy(ticket, password)

	pub, err := x509.ParsePKIXPublicKey(pubKeyDER)
	if err != nil {
		return nil, protoerr.NewLinkError("parse server public key", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, protoerr.NewLinkError("parse server public key", fmt.Errorf("not an RSA key"))
	}

	ciphertext, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, rsaPub, ticket, nil)
	if err != nil {
		return nil, protoerr.NewLinkError("rsa oaep encrypt", err)
	}
	return ciphertext, nil
}
