package provenance

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/digitorus/mediaseal/keystore"
)

func setupKeys(t *testing.T, dir, authority string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	name := keystore.Sanitize(authority)
	privFile, err := os.Create(filepath.Join(dir, name+"_private.pem"))
	require.NoError(t, err)
	require.NoError(t, pem.Encode(privFile, &pem.Block{Type: "PRIVATE KEY", Bytes: privDER}))
	require.NoError(t, privFile.Close())

	pubFile, err := os.Create(filepath.Join(dir, name+"_public.pem"))
	require.NoError(t, err)
	require.NoError(t, pem.Encode(pubFile, &pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	require.NoError(t, pubFile.Close())
}

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 128, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 2), G: uint8(y * 2), B: uint8(x + y), A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestSignVerifyTextRoundTrip(t *testing.T) {
	dir := t.TempDir()
	keysDir := filepath.Join(dir, "keys")
	require.NoError(t, os.MkdirAll(keysDir, 0o755))
	setupKeys(t, keysDir, "Gov of X")

	src := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello world\n"), 0o644))

	store := keystore.New(keysDir)
	outPath, err := Sign(store, src, "Gov of X", "demo")
	require.NoError(t, err)

	report := Verify(store, outPath)
	require.Equal(t, StatusVerified, report.Status)
	require.NotNil(t, report.Metadata)
	require.Equal(t, "Gov of X", report.Metadata.Authority)
	require.Equal(t, "demo", report.Metadata.Message)
}

func TestSignVerifyImageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	keysDir := filepath.Join(dir, "keys")
	require.NoError(t, os.MkdirAll(keysDir, 0o755))
	setupKeys(t, keysDir, "Gov of X")

	src := filepath.Join(dir, "photo.png")
	writeTestPNG(t, src)

	store := keystore.New(keysDir)
	outPath, err := Sign(store, src, "Gov of X", "demo")
	require.NoError(t, err)

	report := Verify(store, outPath)
	require.Equal(t, StatusVerified, report.Status)
}

func TestVerifyUnsignedFile(t *testing.T) {
	dir := t.TempDir()
	keysDir := filepath.Join(dir, "keys")
	require.NoError(t, os.MkdirAll(keysDir, 0o755))

	src := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(src, []byte("just text\n"), 0o644))

	store := keystore.New(keysDir)
	report := Verify(store, src)
	require.Equal(t, StatusUnsigned, report.Status)
}

func TestVerifyTamperedContent(t *testing.T) {
	dir := t.TempDir()
	keysDir := filepath.Join(dir, "keys")
	require.NoError(t, os.MkdirAll(keysDir, 0o755))
	setupKeys(t, keysDir, "Gov of X")

	src := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello world\n"), 0o644))

	store := keystore.New(keysDir)
	outPath, err := Sign(store, src, "Gov of X", "demo")
	require.NoError(t, err)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	tampered := append([]byte("hello mars\n"), raw[len("hello world\n"):]...)
	require.NoError(t, os.WriteFile(outPath, tampered, 0o644))

	report := Verify(store, outPath)
	require.Equal(t, StatusTampered, report.Status)
}

func TestVerifyUnknownAuthority(t *testing.T) {
	dir := t.TempDir()
	keysDir := filepath.Join(dir, "keys")
	require.NoError(t, os.MkdirAll(keysDir, 0o755))
	setupKeys(t, keysDir, "Gov of X")

	src := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello world\n"), 0o644))

	store := keystore.New(keysDir)
	outPath, err := Sign(store, src, "Gov of X", "demo")
	require.NoError(t, err)

	// Verifying from a store with no keys at all cannot find the public key.
	emptyStore := keystore.New(t.TempDir())
	report := Verify(emptyStore, outPath)
	require.Equal(t, StatusError, report.Status)
}
