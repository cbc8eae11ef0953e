// Package locale resolves the language a survey was answered in to the
// text direction and display name plans are rendered and generated with.
package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Default is used when a survey carries no usable language.
const Default = "en"

var rtlScripts = map[string]bool{
	"Adlm": true,
	"Arab": true,
	"Hebr": true,
	"Nkoo": true,
	"Rohg": true,
	"Syrc": true,
	"Thaa": true,
}

func parse(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil || tag == language.Und {
		return language.MustParse(Default)
	}
	return tag
}

// Normalize returns the canonical BCP 47 form of lang, or Default.
func Normalize(lang string) string {
	return parse(lang).String()
}

// Direction returns "rtl" for languages written in a right-to-left script
// and "ltr" otherwise.
func Direction(lang string) string {
	script, _ := parse(lang).Script()
	if rtlScripts[script.String()] {
		return "rtl"
	}
	return "ltr"
}

// DisplayName returns the English name of lang, e.g. "Hebrew".
func DisplayName(lang string) string {
	tag := parse(lang)
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return tag.String()
}
