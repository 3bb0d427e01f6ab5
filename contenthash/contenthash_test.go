package contenthash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := map[string]Carrier{
		"photo.png":  CarrierImage,
		"photo.JPG":  CarrierImage,
		"scan.pdf":   CarrierPDF,
		"notes.txt":  CarrierText,
		"data.json":  CarrierText,
		"archive.7z": CarrierOther,
	}
	for name, want := range cases {
		require.Equal(t, want, Classify(name), "path %q", name)
	}
}

func TestTextHashBytesStripsSignatureBlock(t *testing.T) {
	body := []byte("hello world\n")
	signed := append(append([]byte{}, body...), []byte("\n\n-----BEGIN OFFICIAL SIGNATURE-----\nstuff\n-----END OFFICIAL SIGNATURE-----")...)

	want := TextHashBytes(body)
	got := TextHashBytes(signed)
	require.Equal(t, want.Hash, got.Hash)
}

func TestTextHashBytesNewlineVariants(t *testing.T) {
	lf := []byte("line one\nline two\n")
	crlf := []byte("line one\r\nline two\r\n")

	lfResult := TextHashBytes(lf)
	crlfResult := TextHashBytes(crlf)

	require.Contains(t, lfResult.Variants, crlfResult.Hash)
	require.Contains(t, crlfResult.Variants, lfResult.Hash)
}

func TestTextHashBytesMixedNewlinesDoNotDoubleConvert(t *testing.T) {
	// A body that already contains CRLF must not become CRCRLF when the
	// Windows variant is derived from the LF-normalized intermediate.
	mixed := []byte("a\r\nb\nc\r\n")
	result := TextHashBytes(mixed)
	require.Len(t, result.Variants, 3)
	require.NotEqual(t, result.Variants[0], result.Variants[2])
	require.Equal(t, hashHex([]byte("a\r\nb\r\nc\r\n")), result.Variants[2])
}

func TestRawHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte("some bytes"), 0o644))

	result, err := RawHash(path)
	require.NoError(t, err)
	require.Equal(t, StrategyRaw, result.Strategy)
	require.Len(t, result.Hash, 64)
}

func TestHammingDistance(t *testing.T) {
	d, err := HammingDistance("0000000000000000", "0000000000000001")
	require.NoError(t, err)
	require.Equal(t, 1, d)

	d, err = HammingDistance("ffffffffffffffff", "0000000000000000")
	require.NoError(t, err)
	require.Equal(t, 64, d)

	_, err = HammingDistance("ab", "abcd")
	require.Error(t, err)
}
