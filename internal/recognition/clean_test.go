package recognition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "Hello World", CleanText("  Hello   World  \n\n\n"))
}

func TestCleanTextKeepsLineStructure(t *testing.T) {
	in := "BIRTH  CERTIFICATE\n\n\n  Name:   Ada Lovelace  \n\nDate: 1815-12-10"
	want := "BIRTH CERTIFICATE\nName: Ada Lovelace\nDate: 1815-12-10"
	assert.Equal(t, want, CleanText(in))
}

func TestCleanTextIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"plain",
		"  Hello   World  \n\n\n",
		"a\n\nb\tc\r\nd",
		"tabs\t\tand   spaces",
	}
	for _, in := range inputs {
		once := CleanText(in)
		assert.Equal(t, once, CleanText(once), "input %q", in)
	}
}

func TestCleanTextEmpty(t *testing.T) {
	assert.Equal(t, "", CleanText("\n \n\t\n"))
}
