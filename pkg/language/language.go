// Package language describes the alphabet collaborator of the dictionary: how
// a word of a language is lowercased and which keypad digits type it.
package language

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
)

// Language is what the dictionary needs to know about an alphabet.
// DigitSequenceForWord must be deterministic for the same input.
type Language interface {
	ID() int
	Name() string
	DigitSequenceForWord(word string) (string, error)
	ToLowerCase(word string) string
}

// UnknownCharError reports a character that has no key on the keypad.
type UnknownCharError struct {
	Language string
	Word     string
	Char     rune
}

func (e *UnknownCharError) Error() string {
	return fmt.Sprintf("%s: no key types %q in %q", e.Language, e.Char, e.Word)
}

// Keypad is a Language defined by the letters printed on each digit key.
type Keypad struct {
	id     int
	name   string
	locale xlanguage.Tag
	keys   map[rune]byte
}

// NewKeypad builds a keypad language. layout[d] lists the characters typed by
// digit d; characters are matched after lowercasing with locale.
func NewKeypad(id int, name string, locale xlanguage.Tag, layout [10]string) *Keypad {
	k := &Keypad{
		id:     id,
		name:   name,
		locale: locale,
		keys:   make(map[rune]byte),
	}
	for digit, chars := range layout {
		for _, r := range cases.Lower(locale).String(chars) {
			k.keys[r] = byte('0' + digit)
		}
	}
	return k
}

func (k *Keypad) ID() int      { return k.id }
func (k *Keypad) Name() string { return k.name }

// ToLowerCase lowercases word with the rules of the keypad's locale.
// A cases.Caser is stateful, so each call gets its own.
func (k *Keypad) ToLowerCase(word string) string {
	return cases.Lower(k.locale).String(word)
}

// DigitSequenceForWord returns the keys pressed to type word.
func (k *Keypad) DigitSequenceForWord(word string) (string, error) {
	lower := k.ToLowerCase(word)
	var sb strings.Builder
	sb.Grow(len(lower))
	for _, r := range lower {
		d, ok := k.keys[r]
		if !ok {
			return "", &UnknownCharError{Language: k.name, Word: word, Char: r}
		}
		sb.WriteByte(d)
	}
	return sb.String(), nil
}

// English is the ITU E.161 letter layout with punctuation on 1 and the
// apostrophe and hyphen kept on 1 so contractions can be stored.
func English() *Keypad {
	return NewKeypad(1, "English", xlanguage.English, [10]string{
		0: " ",
		1: ".,'-!?",
		2: "abc",
		3: "def",
		4: "ghi",
		5: "jkl",
		6: "mno",
		7: "pqrs",
		8: "tuv",
		9: "wxyz",
	})
}

// Registry resolves numeric language ids.
type Registry struct {
	mu    sync.RWMutex
	langs map[int]Language
}

// NewRegistry returns a registry holding langs.
func NewRegistry(langs ...Language) *Registry {
	r := &Registry{langs: make(map[int]Language)}
	for _, l := range langs {
		r.Register(l)
	}
	return r
}

// DefaultRegistry knows the built-in languages.
func DefaultRegistry() *Registry {
	return NewRegistry(English())
}

// Register adds or replaces a language.
func (r *Registry) Register(l Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.langs[l.ID()] = l
}

// Lookup returns the language with the given id, or nil when there is none.
func (r *Registry) Lookup(id int) Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.langs[id]
	if !ok {
		return nil
	}
	return l
}

// ByName finds a language by case-insensitive name, or nil.
func (r *Registry) ByName(name string) Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.langs {
		if strings.EqualFold(l.Name(), name) {
			return l
		}
	}
	return nil
}
