package errors

import (
	"strings"
	"testing"
)

func TestValidateDest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "verbose", false},
		{"underscore", "dry_run", false},
		{"suppress marker", "==SUPPRESS==", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDest(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDest(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidGrammar) {
				t.Errorf("ValidateDest(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidGrammar)
			}
		})
	}
}

func TestValidateOptionString(t *testing.T) {
	tests := []struct {
		name    string
		opt     string
		prefix  string
		wantErr bool
	}{
		{"short", "-v", "-", false},
		{"long", "--verbose", "-", false},
		{"plus prefix", "+d", "-+", false},
		{"default prefix", "-x", "", false},

		{"empty", "", "-", true},
		{"wrong prefix", "+d", "-", true},
		{"prefix only", "--", "-", true},
		{"whitespace", "--dry run", "-", true},
		{"no prefix", "verbose", "-", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOptionString(tt.opt, tt.prefix)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOptionString(%q, %q) error = %v, wantErr %v", tt.opt, tt.prefix, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCommandName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "checkout", false},
		{"short alias", "co", false},
		{"dashed", "dry-run", false},

		{"empty", "", true},
		{"leading dash", "-x", true},
		{"space", "check out", true},
		{"tab", "co\t", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommandName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCommandName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
