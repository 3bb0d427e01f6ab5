// Package keystore loads authority key pairs from a directory of PEM files,
// the same flat-file layout the teacher used for embedding certificates: one
// file per identity, named by a sanitized form of the authority string.
package keystore

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/digitorus/mediaseal/errs"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Sanitize maps an arbitrary authority name to a filesystem-safe stem by
// replacing each run of characters other than ASCII letters, digits, '_'
// and '-' with a single underscore. An empty result becomes "_".
func Sanitize(name string) string {
	s := unsafeChars.ReplaceAllString(name, "_")
	if s == "" {
		s = "_"
	}
	return s
}

// Store resolves authority key pairs under a single directory.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) privatePath(name string) string {
	return filepath.Join(s.Dir, Sanitize(name)+"_private.pem")
}

func (s *Store) publicPath(name string) string {
	return filepath.Join(s.Dir, Sanitize(name)+"_public.pem")
}

// LoadPrivate reads and parses the PKCS#8 private key for name.
func (s *Store) LoadPrivate(name string) (*rsa.PrivateKey, error) {
	path := s.privatePath(name)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errs.KeyNotFoundError{Name: name}
		}
		return nil, fmt.Errorf("reading private key %s: %w", path, &errs.CarrierIOError{Err: err})
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("decoding PEM for %s: %w", name, &errs.CryptoError{Err: fmt.Errorf("no PEM block found")})
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key for %s: %w", name, &errs.CryptoError{Err: err})
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key for %s is not RSA: %w", name, &errs.CryptoError{Err: fmt.Errorf("unexpected key type %T", key)})
	}
	return rsaKey, nil
}

// LoadPublic reads and parses the SubjectPublicKeyInfo public key for name.
func (s *Store) LoadPublic(name string) (*rsa.PublicKey, error) {
	path := s.publicPath(name)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errs.KeyNotFoundError{Name: name}
		}
		return nil, fmt.Errorf("reading public key %s: %w", path, &errs.CarrierIOError{Err: err})
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("decoding PEM for %s: %w", name, &errs.CryptoError{Err: fmt.Errorf("no PEM block found")})
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing public key for %s: %w", name, &errs.CryptoError{Err: err})
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("key for %s is not RSA: %w", name, &errs.CryptoError{Err: fmt.Errorf("unexpected key type %T", key)})
	}
	return rsaKey, nil
}

// Exists reports whether a private key file is already on disk for name.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.privatePath(name))
	return err == nil
}
