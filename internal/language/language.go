package language

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Unknown is the canonical name for an undetermined language.
const Unknown = "Unknown"

type entry struct {
	code2   string   // ISO 639-1
	display string   // English name
	words   []string // additional spellings a model may answer with
}

var languages = []entry{
	{"en", "English", nil},
	{"es", "Spanish", []string{"español", "espanol", "castilian"}},
	{"fr", "French", []string{"français", "francais"}},
	{"de", "German", []string{"deutsch"}},
	{"it", "Italian", []string{"italiano"}},
	{"pt", "Portuguese", []string{"português", "portugues", "brazilian portuguese"}},
	{"ja", "Japanese", []string{"日本語"}},
	{"ko", "Korean", []string{"한국어"}},
	{"zh", "Chinese", []string{"mandarin", "mandarin chinese", "cantonese", "中文"}},
	{"ru", "Russian", []string{"русский"}},
	{"ar", "Arabic", nil},
	{"hi", "Hindi", nil},
	{"nl", "Dutch", []string{"nederlands"}},
	{"pl", "Polish", []string{"polski"}},
	{"sv", "Swedish", []string{"svenska"}},
	{"tr", "Turkish", []string{"türkçe"}},
	{"vi", "Vietnamese", []string{"tiếng việt"}},
	{"id", "Indonesian", []string{"bahasa indonesia"}},
	{"th", "Thai", nil},
	{"uk", "Ukrainian", nil},
}

var (
	byCode2 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byWord[strings.ToLower(e.display)] = e
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(value string) *entry {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}
	if e, ok := byCode2[value]; ok {
		return e
	}
	if e, ok := byWord[value]; ok {
		return e
	}
	return nil
}

// parseTag resolves BCP 47 and ISO 639 codes ("pt-BR", "spa", "sw").
func parseTag(value string) (xlanguage.Tag, bool) {
	tag, err := xlanguage.Parse(strings.TrimSpace(value))
	if err != nil || tag == xlanguage.Und {
		return xlanguage.Und, false
	}
	return tag, true
}

// Canonical maps a model answer or a code to an English language name.
// Empty or undetermined input yields Unknown. Unrecognized names are
// title-cased and passed through.
func Canonical(value string) string {
	trimmed := strings.TrimSpace(strings.Trim(value, " \t.,;:!\"'`*"))
	if trimmed == "" || strings.EqualFold(trimmed, Unknown) {
		return Unknown
	}
	if e := lookup(trimmed); e != nil {
		return e.display
	}
	if tag, ok := parseTag(trimmed); ok {
		base, _ := tag.Base()
		if e := lookup(base.String()); e != nil {
			return e.display
		}
		if name := display.English.Languages().Name(base); name != "" {
			return name
		}
	}
	return cases.Title(xlanguage.English).String(strings.ToLower(trimmed))
}

// Find returns the first language named in free text ("The language is
// Spanish."). Only full names match; bare codes are ignored.
func Find(text string) (string, bool) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if e, ok := byWord[w]; ok {
			return e.display, true
		}
	}
	return "", false
}

// ToISO2 converts a language name or code to ISO 639-1. Unrecognized input
// yields an empty string.
func ToISO2(value string) string {
	if e := lookup(value); e != nil {
		return e.code2
	}
	if tag, ok := parseTag(value); ok {
		base, conf := tag.Base()
		if conf != xlanguage.No && len(base.String()) == 2 {
			return base.String()
		}
	}
	return ""
}

// Same reports whether two names or codes denote the same language.
// Unknown never matches.
func Same(a, b string) bool {
	ca, cb := Canonical(a), Canonical(b)
	if ca == Unknown || cb == Unknown {
		return false
	}
	return strings.EqualFold(ca, cb)
}

// FileToken returns the lowercase filesystem-safe form of a language name
// used in artifact file names. ASCII letters, digits, '-' and '_' survive;
// anything else becomes '_'. Empty input yields "unknown".
func FileToken(value string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return unicode.ToLower(r)
		default:
			return '_'
		}
	}, strings.TrimSpace(value))
	token = strings.Trim(token, "_-")
	if token == "" {
		return "unknown"
	}
	return token
}
