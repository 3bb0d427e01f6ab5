package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/digitorus/mediaseal/keystore"
)

const rsaKeyBits = 2048

// keygen generates a fresh RSA key pair for name and writes it as PKCS#8
// (private) and SubjectPublicKeyInfo (public) PEM files under dir. It
// refuses to overwrite an existing private key.
func keygen(dir, name string) error {
	privPath := filepath.Join(dir, keystore.Sanitize(name)+"_private.pem")
	pubPath := filepath.Join(dir, keystore.Sanitize(name)+"_public.pem")

	if _, err := os.Stat(privPath); err == nil {
		return fmt.Errorf("key %q already exists at %s", name, privPath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating keys directory: %w", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshaling private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("marshaling public key: %w", err)
	}

	if err := writePEM(privPath, "PRIVATE KEY", privDER); err != nil {
		return err
	}
	return writePEM(pubPath, "PUBLIC KEY", pubDER)
}

func writePEM(path, blockType string, der []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return pem.Encode(f, &pem.Block{Type: blockType, Bytes: der})
}
