// ABOUTME: Structural chunker: sentences grouped into numbered-heading sections
// ABOUTME: Oversized sections are re-split on bullet/colon lines, sentences, then word windows
package chunker

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

var (
	headingRe    = regexp.MustCompile(`^\d+\.\s+[A-Z]`)
	bulletRe     = regexp.MustCompile(`^([-*•▪●◦]|\(?[a-z]\))\s+`)
	labelColonRe = regexp.MustCompile(`^[A-Za-z][\w /&()'-]{0,40}:(\s|$)`)
	numberOnlyRe = regexp.MustCompile(`^\d+(\.\d+)*$`)
)

// Structural splits text into sentences, groups them into sections that start
// at numbered headings, and bounds every section at SectionMaxWords.
type Structural struct {
	SectionMaxWords  int
	OverlapSentences int
}

// NewStructural creates a Structural chunker; a non-positive limit falls back to 400 words
func NewStructural(sectionMaxWords, overlapSentences int) *Structural {
	if sectionMaxWords <= 0 {
		sectionMaxWords = 400
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	return &Structural{SectionMaxWords: sectionMaxWords, OverlapSentences: overlapSentences}
}

// sentence is one segment of the source text
type sentence struct {
	text      string
	lineStart bool
	// boundary marks a bullet or colon-prefixed line, a split point for oversized sections
	boundary bool
}

type section struct {
	heading   string
	sentences []sentence
}

type unit struct {
	heading   string
	sentences []sentence
}

// Chunk splits text into structural chunks with sentence overlap
func (s *Structural) Chunk(text string) []models.Chunk {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var units []unit
	for _, sec := range groupSections(sentences) {
		for _, group := range s.bound(sec.sentences) {
			units = append(units, unit{heading: sec.heading, sentences: group})
		}
	}

	chunks := make([]models.Chunk, 0, len(units))
	var prev []sentence
	for _, u := range units {
		own := joinSentences(u.sentences)
		if wordCount(own) == 0 {
			continue
		}
		chunk := models.Chunk{
			ID:      strconv.Itoa(len(chunks)),
			Text:    own,
			Section: u.heading,
		}
		if len(prev) > 0 && s.OverlapSentences > 0 {
			n := min(s.OverlapSentences, len(prev))
			chunk.Overlap = joinSentences(prev[len(prev)-n:])
			chunk.Text = chunk.Overlap + "\n" + own
		}
		chunks = append(chunks, chunk)
		prev = u.sentences
	}
	return chunks
}

// bound returns the section as one group, or re-split groups when it is over the limit
func (s *Structural) bound(sentences []sentence) [][]sentence {
	if sentenceWords(sentences) <= s.SectionMaxWords {
		return [][]sentence{sentences}
	}

	// pieces each fit the limit and keep source order
	var pieces [][]sentence
	for _, block := range splitAtBoundaries(sentences) {
		if sentenceWords(block) <= s.SectionMaxWords {
			pieces = append(pieces, block)
			continue
		}
		for _, sent := range block {
			if wordCount(sent.text) <= s.SectionMaxWords {
				pieces = append(pieces, []sentence{sent})
				continue
			}
			for i, window := range wordWindows(strings.Fields(sent.text), s.SectionMaxWords) {
				pieces = append(pieces, []sentence{{text: window, lineStart: i == 0 && sent.lineStart}})
			}
		}
	}

	// greedy packing of consecutive pieces
	var groups [][]sentence
	var current []sentence
	currentWords := 0
	for _, p := range pieces {
		w := sentenceWords(p)
		if len(current) > 0 && currentWords+w > s.SectionMaxWords {
			groups = append(groups, current)
			current, currentWords = nil, 0
		}
		current = append(current, p...)
		currentWords += w
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// splitAtBoundaries cuts a sentence run before every bullet or colon-prefixed line
func splitAtBoundaries(sentences []sentence) [][]sentence {
	var blocks [][]sentence
	var current []sentence
	for _, sent := range sentences {
		if sent.boundary && len(current) > 0 {
			blocks = append(blocks, current)
			current = nil
		}
		current = append(current, sent)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// groupSections starts a new section at every numbered heading sentence
func groupSections(sentences []sentence) []section {
	var sections []section
	current := section{}
	for _, sent := range sentences {
		if headingRe.MatchString(sent.text) {
			if len(current.sentences) > 0 {
				sections = append(sections, current)
			}
			current = section{heading: headingLabel(sent.text)}
		}
		current.sentences = append(current.sentences, sent)
	}
	if len(current.sentences) > 0 {
		sections = append(sections, current)
	}
	return sections
}

func headingLabel(s string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > 80 {
		return string(runes[:80])
	}
	return string(runes)
}

// splitSentences segments text on sentence-terminal punctuation followed by
// whitespace. Line structure is kept so bullets and colon labels can be found.
func splitSentences(text string) []sentence {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out []sentence
	prevEndsColon := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		boundary := bulletRe.MatchString(line) || labelColonRe.MatchString(line) || prevEndsColon
		for i, piece := range splitLine(line) {
			out = append(out, sentence{
				text:      piece,
				lineStart: i == 0,
				boundary:  i == 0 && boundary,
			})
		}
		prevEndsColon = strings.HasSuffix(line, ":")
	}
	return out
}

// splitLine cuts one line after '.', '!' or '?' when followed by whitespace.
// A bare list number such as "1." or "2.3." never ends a sentence.
func splitLine(line string) []string {
	var pieces []string
	runes := []rune(line)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// absorb runs like "?!" or "..."
		end := i + 1
		for end < len(runes) && strings.ContainsRune(".!?\"')]", runes[end]) {
			end++
		}
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			i = end - 1
			continue
		}
		candidate := strings.TrimSpace(string(runes[start:end]))
		if numberOnlyRe.MatchString(strings.TrimRight(candidate, ".")) {
			i = end - 1
			continue
		}
		if candidate != "" {
			pieces = append(pieces, candidate)
		}
		start = end
		i = end - 1
	}
	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		pieces = append(pieces, rest)
	}
	return pieces
}

func joinSentences(sentences []sentence) string {
	var b strings.Builder
	for i, sent := range sentences {
		if i > 0 {
			if sent.lineStart {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(sent.text)
	}
	return b.String()
}

func sentenceWords(sentences []sentence) int {
	n := 0
	for _, sent := range sentences {
		n += wordCount(sent.text)
	}
	return n
}
