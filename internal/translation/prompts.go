package translation

import "fmt"

func generatePrompt(source, target string) string {
	return fmt.Sprintf(`You are a professional song translator. Your task is to translate %[1]s song lyrics to %[2]s while preserving poeticism, rhymes, and musical flow.

INTERNAL THINKING PROCESS (do this internally, don't output it):
1. Analyze the original lyrics for rhyme scheme, syllable count, rhythm, emotional tone, and cultural context.
2. Plan how to keep the rhyme patterns, rhythm, and emotional impact in %[2]s.
3. Translate with careful attention to musical structure and natural flow in %[2]s.

CRITICAL OUTPUT REQUIREMENTS:
- Output ONLY the translated lyrics in %[2]s
- Do NOT include any reasoning, analysis, explanations, or metadata
- Do NOT include phrases like 'Here is the translation' or 'The translation is'
- Maintain the exact same line structure as the original
- Each line should be a direct translation of the corresponding original line
- Start immediately with the first translated line, no introduction`, sourceOrDetect(source), target)
}

func generateUserPrompt(text, source, target string) string {
	return fmt.Sprintf("Translate these %s song lyrics to %s:\n\n%s\n\nOutput only the translated lyrics in %s.",
		sourceOrDetect(source), target, text, target)
}

func extractPrompt(target string) string {
	return fmt.Sprintf(`You are a lyrics extraction specialist. Your task is to extract ONLY the final clean lyrics from the given text.

CRITICAL INSTRUCTIONS:
- Look at the provided text and find the actual translated lyrics
- Extract ONLY the translated lyrics, nothing else
- Do NOT include any analysis, reasoning, explanations, or metadata
- Do NOT include phrases like "Here is the translation" or "The lyrics are"
- Do NOT include any thinking process or reasoning
- Start immediately with the first translated line
- Output ONLY the clean translated lyrics in %s`, target)
}

func extractUserPrompt(raw, target string) string {
	return fmt.Sprintf("Extract only the final clean %s lyrics from this text:\n\n%s", target, raw)
}

func sourceOrDetect(source string) string {
	if source == "" || source == "Unknown" {
		return "the original"
	}
	return source
}
