// Package ingest builds, normalizes, chunks, embeds, and stores entity text.
// The Indexer is the only writer of the embedding store.
package ingest

import "strings"

// DefaultMaxChunkChars caps chunk size for the embedding model.
const DefaultMaxChunkChars = 1500

// ChunkText splits text into chunks of at most maxChars, preferring
// paragraph boundaries and falling back to sentence boundaries for
// paragraphs that are oversized on their own.
func ChunkText(content string, maxChars int) []string {
	if content == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var paragraphs []string
	for _, p := range strings.Split(content, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var chunks []string
	buffer := ""
	for _, p := range paragraphs {
		if len(buffer)+len("\n\n")+len(p) <= maxChars {
			if buffer == "" {
				buffer = p
			} else {
				buffer += "\n\n" + p
			}
			continue
		}
		if buffer != "" {
			chunks = append(chunks, buffer)
			buffer = p
			continue
		}
		// The paragraph alone exceeds maxChars. Break it by sentences;
		// the trailing sentence buffer seeds the next paragraph round.
		sBuf := ""
		for _, s := range splitSentences(p) {
			candidate := strings.TrimSpace(sBuf + " " + s)
			if len(candidate) <= maxChars {
				sBuf = candidate
			} else {
				if sBuf != "" {
					chunks = append(chunks, sBuf)
				}
				sBuf = s
			}
		}
		buffer = sBuf
	}
	if buffer != "" {
		chunks = append(chunks, buffer)
	}
	return chunks
}

// splitSentences breaks text after sentence-ending punctuation followed by
// whitespace. The whitespace is consumed; punctuation stays on the sentence.
func splitSentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && isSpace(runes[i+1]) {
			out = append(out, string(runes[start:i+1]))
			i++
			for i < len(runes) && isSpace(runes[i]) {
				i++
			}
			start = i
			i--
		}
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
