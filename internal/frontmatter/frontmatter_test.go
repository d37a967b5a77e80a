package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitNoFrontMatter(t *testing.T) {
	input := []byte("# Новости\n\nТекст.\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplitFrontMatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: \"Визит в Пекин\"\n---\n# Визит\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: \"Визит в Пекин\"\n"), fm)
	require.Equal(t, []byte("# Визит\n"), body)
}

func TestSplitMissingClosingDelimiter(t *testing.T) {
	_, _, had, _, err := Split([]byte("---\ntitle: x\n# Визит\n"))
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplitCRLF(t *testing.T) {
	input := []byte("---\r\ntitle: x\r\n---\r\n# Визит\r\n")

	fm, body, had, style, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "\r\n", style.Newline)
	require.Equal(t, []byte("title: x\r\n"), fm)
	require.Equal(t, []byte("# Визит\r\n"), body)
}

func TestSplitEmptyBlock(t *testing.T) {
	fm, body, had, _, err := Split([]byte("---\n---\n# Визит\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Визит\n"), body)
}

func TestParseYAML(t *testing.T) {
	fields, err := ParseYAML([]byte("title: \"Визит\"\nweight: 3\nbookHidden: true\n"))
	require.NoError(t, err)
	require.Equal(t, "Визит", fields["title"])
	require.Equal(t, 3, fields["weight"])
	require.Equal(t, true, fields["bookHidden"])
}

func TestParseYAMLEmpty(t *testing.T) {
	fields, err := ParseYAML(nil)
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestParseYAMLInvalid(t *testing.T) {
	_, err := ParseYAML([]byte(": not yaml"))
	require.Error(t, err)
}
