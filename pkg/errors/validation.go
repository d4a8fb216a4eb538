package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds dests, option strings, and command names.
const maxNameLength = 256

// ValidateDest validates the destination name of an argument.
// Dests are attribute names in the parsed namespace, so they must be
// non-empty and free of control characters.
func ValidateDest(dest string) error {
	if dest == "" {
		return New(ErrCodeInvalidGrammar, "dest cannot be empty")
	}
	if len(dest) > maxNameLength {
		return New(ErrCodeInvalidGrammar, "dest too long (max %d characters)", maxNameLength)
	}
	for _, r := range dest {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGrammar, "dest %q contains invalid control characters", dest)
		}
	}
	return nil
}

// ValidateOptionString validates a single option string such as "-v" or
// "--verbose" against the parser's prefix characters.
//
// The validation rules:
//   - Must start with one of prefixChars
//   - Must contain at least one character after the prefix run
//   - No whitespace or control characters
func ValidateOptionString(opt, prefixChars string) error {
	if opt == "" {
		return New(ErrCodeInvalidGrammar, "option string cannot be empty")
	}
	if len(opt) > maxNameLength {
		return New(ErrCodeInvalidGrammar, "option string too long (max %d characters)", maxNameLength)
	}
	if prefixChars == "" {
		prefixChars = "-"
	}
	if !strings.ContainsRune(prefixChars, rune(opt[0])) {
		return New(ErrCodeInvalidGrammar, "option string %q must start with one of %q", opt, prefixChars)
	}
	if strings.TrimLeft(opt, prefixChars) == "" {
		return New(ErrCodeInvalidGrammar, "option string %q has no name", opt)
	}
	for _, r := range opt {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return New(ErrCodeInvalidGrammar, "option string %q contains invalid characters", opt)
		}
	}
	return nil
}

// ValidateCommandName validates a sub-command name or alias.
func ValidateCommandName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidGrammar, "command name cannot be empty")
	}
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidGrammar, "command name too long (max %d characters)", maxNameLength)
	}
	if strings.HasPrefix(name, "-") {
		return New(ErrCodeInvalidGrammar, "command name %q cannot start with '-'", name)
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return New(ErrCodeInvalidGrammar, "command name %q contains invalid characters", name)
		}
	}
	return nil
}
