package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", Email("  Ada@Example.COM "))
}

func TestUsername(t *testing.T) {
	assert.Equal(t, "ada_lovelace", Username(" Ada_Lovelace"))
	// fullwidth letters fold to ascii under NFKC
	assert.Equal(t, "ada", Username("ＡＤＡ"))
}

func TestText(t *testing.T) {
	assert.Equal(t, "Motion designer at Studio", Text("  Motion   designer\tat Studio \n"))
	// combining acute accent composes under NFC
	assert.Equal(t, "café", Text("café"))
}

func TestMultiline(t *testing.T) {
	assert.Equal(t, "line one\n\nline two", Multiline("\n line one\n\nline two  \n"))
}
