package core

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultVoiceDescription is used when a spoken command carries no description.
const DefaultVoiceDescription = "No description"

// VoiceCommand is the manual-entry triple extracted from a transcript.
type VoiceCommand struct {
	Description string
	AmountText  string
	Category    string
}

// ParseVoiceCommand reads a positional sentence like "Add 500 Food Lunch with Ana".
//
// The first word is ignored, the second is the amount (left unparsed so the add
// path rejects it like a typed value), the third is the category, capitalized,
// and the rest is the description. There is no grammar beyond word positions.
func ParseVoiceCommand(transcript string) VoiceCommand {
	words := strings.Fields(transcript)
	cmd := VoiceCommand{
		Category:    DefaultCategory,
		Description: DefaultVoiceDescription,
	}
	if len(words) > 1 {
		cmd.AmountText = words[1]
	}
	if len(words) > 2 {
		cmd.Category = Capitalize(words[2])
	}
	if len(words) > 3 {
		cmd.Description = strings.Join(words[3:], " ")
	}
	return cmd
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
