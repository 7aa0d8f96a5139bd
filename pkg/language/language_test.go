package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xlanguage "golang.org/x/text/language"
)

func TestEnglishDigitSequence(t *testing.T) {
	en := English()

	cases := map[string]string{
		"what":   "9428",
		"hello":  "43556",
		"Roller": "765537",
		"don't":  "36618",
		"a":      "2",
	}
	for word, want := range cases {
		got, err := en.DigitSequenceForWord(word)
		require.NoError(t, err, word)
		assert.Equal(t, want, got, word)
	}
}

func TestDigitSequenceIsStable(t *testing.T) {
	en := English()
	first, err := en.DigitSequenceForWord("keyboard")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := en.DigitSequenceForWord("KEYBOARD")
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestDigitSequenceUnknownChar(t *testing.T) {
	_, err := English().DigitSequenceForWord("naïve")
	var uce *UnknownCharError
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, 'ï', uce.Char)
}

func TestToLowerCaseUsesLocale(t *testing.T) {
	tr := NewKeypad(7, "Turkish", xlanguage.Turkish, [10]string{2: "abcç", 4: "ghıi"})
	assert.Equal(t, "ıi", tr.ToLowerCase("Iİ"))
	assert.Equal(t, "ii", English().ToLowerCase("II"))

	seq, err := tr.DigitSequenceForWord("I")
	require.NoError(t, err)
	assert.Equal(t, "4", seq)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	require.NotNil(t, r.Lookup(1))
	assert.Equal(t, "English", r.Lookup(1).Name())
	assert.Nil(t, r.Lookup(99))
	assert.NotNil(t, r.ByName("english"))
	assert.Nil(t, r.ByName("klingon"))

	r.Register(NewKeypad(99, "Test", xlanguage.Und, [10]string{2: "ab"}))
	assert.Equal(t, "Test", r.Lookup(99).Name())
}
