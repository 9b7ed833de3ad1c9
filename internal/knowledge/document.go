// Package knowledge turns the winery document into searchable chunks:
// it splits the text, embeds every chunk and ranks chunks against a query
// by cosine similarity.
package knowledge

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// Chunking defaults
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// separators are tried in order; the empty separator splits runes
var separators = []string{"\n\n", "\n", " ", ""}

// LoadDocument reads the knowledge document at path
func LoadDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s not found, create it with the winery information: %w", path, err)
		}
		return "", fmt.Errorf("failed to read knowledge document: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("knowledge document %s is not valid UTF-8", path)
	}
	return string(data), nil
}

// Split cuts text into chunks of at most size runes, preferring paragraph
// breaks, then line breaks, then spaces. Consecutive chunks share up to
// overlap runes of context.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return splitRecursive(text, separators, size, overlap)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func splitRecursive(text string, seps []string, size, overlap int) []string {
	sep := seps[len(seps)-1]
	var rest []string
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		for _, p := range strings.Split(text, sep) {
			if p != "" {
				pieces = append(pieces, p)
			}
		}
	}

	var chunks, fitting []string
	for _, p := range pieces {
		if runeLen(p) < size {
			fitting = append(fitting, p)
			continue
		}
		if len(fitting) > 0 {
			chunks = append(chunks, merge(fitting, sep, size, overlap)...)
			fitting = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, p)
		} else {
			chunks = append(chunks, splitRecursive(p, rest, size, overlap)...)
		}
	}
	if len(fitting) > 0 {
		chunks = append(chunks, merge(fitting, sep, size, overlap)...)
	}
	return chunks
}

// merge packs pieces joined by sep into chunks of at most size runes,
// starting each new chunk with the tail of the previous one
func merge(pieces []string, sep string, size, overlap int) []string {
	sepLen := runeLen(sep)
	var chunks, current []string
	total := 0

	joinedLen := func(extra int) int {
		if len(current) > 0 {
			return total + extra + sepLen
		}
		return total + extra
	}

	for _, p := range pieces {
		n := runeLen(p)
		if joinedLen(n) > size && len(current) > 0 {
			if c := strings.TrimSpace(strings.Join(current, sep)); c != "" {
				chunks = append(chunks, c)
			}
			for total > overlap || (total > 0 && joinedLen(n) > size) {
				drop := runeLen(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, p)
		total += n
	}

	if c := strings.TrimSpace(strings.Join(current, sep)); c != "" {
		chunks = append(chunks, c)
	}
	return chunks
}
