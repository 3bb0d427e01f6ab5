package text

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/digitorus/mediaseal/errs"
)

func TestEmbedExtractRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello world\n"), 0o644))

	out := filepath.Join(dir, "signed_hello.txt")
	require.NoError(t, Embed(src, out, "deadbeef|ts|Gov of X|demo||SIG||c2ln"))

	got, err := Extract(out)
	require.NoError(t, err)
	require.Equal(t, "deadbeef|ts|Gov of X|demo||SIG||c2ln", got)
}

func TestExtractNoSignature(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(src, []byte("just text\n"), 0o644))

	_, err := Extract(src)
	require.ErrorIs(t, err, errs.ErrNoSignatureFound)
}

func TestEmbedReplacesExistingBlock(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello world\n"), 0o644))

	first := filepath.Join(dir, "once.txt")
	require.NoError(t, Embed(src, first, "old-envelope"))

	second := filepath.Join(dir, "twice.txt")
	require.NoError(t, Embed(first, second, "new-envelope"))

	got, err := Extract(second)
	require.NoError(t, err)
	require.Equal(t, "new-envelope", got)

	raw, err := os.ReadFile(second)
	require.NoError(t, err)
	require.Equal(t, 1, countOccurrences(string(raw), header))
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
		}
	}
	return count
}
