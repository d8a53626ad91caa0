package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// Rules is a line filter table applied to model output.
type Rules struct {
	// Phrases drop any line containing one of them (case-insensitive).
	Phrases []string
	// Words drop any line containing one of them as a whole word
	// (case-insensitive).
	Words []string
	// Prefixes drop any line starting with one of them (case-sensitive,
	// after trimming).
	Prefixes []string
	// Spans are removed from the raw text before line filtering.
	Spans []*regexp.Regexp
}

// Reasoning spans emitted by thinking models: closed blocks, a leading block
// whose opening tag was omitted, and an unterminated trailing block.
var thinkSpans = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<think>.*?</think>`),
	regexp.MustCompile(`(?is)\A.*?</think>`),
	regexp.MustCompile(`(?is)<think>.*\z`),
}

var prosodyWords = []string{"rhyme", "rhymes", "syllable", "syllables", "meter"}

// TranslationRules clean translated lyrics.
var TranslationRules = Rules{
	Phrases: []string{
		"translation:", "analysis:", "reasoning:", "thinking:",
		"here is", "here are", "the translation", "translated lyrics",
		"original:", "source:", "target:", "language:",
		"let me", "i need to", "<think>", "</think>",
	},
	Words: prosodyWords,
	Prefixes: []string{
		"I ", "The ", "This ", "In ", "For ", "To ", "With ",
		"Okay", "Let", "First", "Next", "Then", "Finally",
	},
	Spans: thinkSpans,
}

// TranscriptionRules clean transcribed lyrics. Lyrics often open with "I " or
// "The ", so only unambiguous discourse starters are prefixes here.
var TranscriptionRules = Rules{
	Phrases: []string{
		"transcription:", "transcribed lyrics", "here is", "here are",
		"the lyrics are", "audio file", "duration:", "file:",
		"analysis:", "reasoning:", "thinking:", "let me", "i need to",
		"<think>", "</think>",
	},
	Words:    prosodyWords,
	Prefixes: []string{"Okay", "Let me", "Let's", "Note:", "Transcription"},
	Spans:    thinkSpans,
}

// Clean applies r to raw. Surviving lines are trimmed and joined with "\n".
// Clean is idempotent.
func (r Rules) Clean(raw string) string {
	text := raw
	for _, span := range r.Spans {
		text = span.ReplaceAllString(text, "\n")
	}

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || r.drop(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func (r Rules) drop(line string) bool {
	for _, prefix := range r.Prefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	lower := strings.ToLower(line)
	for _, phrase := range r.Phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	if len(r.Words) > 0 {
		words := strings.FieldsFunc(lower, func(c rune) bool {
			return !unicode.IsLetter(c) && c != '\''
		})
		for _, w := range words {
			for _, target := range r.Words {
				if w == target {
					return true
				}
			}
		}
	}
	return false
}
