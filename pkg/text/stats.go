package text

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
)

// WordsPerMinute is the reading speed behind ReadingTime.
const WordsPerMinute = 200

// DateLayout renders timestamps like "Mar 5, 2024, 3:04 PM".
const DateLayout = "Jan 2, 2006, 3:04 PM"

// CountWords counts whitespace-separated words.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// CountCharacters counts the characters that are not whitespace.
func CountCharacters(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// ReadingTime estimates how long s takes to read, rounded up to whole
// minutes: "0 min read" for empty text, "1 min read" up to 200 words.
func ReadingTime(s string) string {
	minutes := int(math.Ceil(float64(CountWords(s)) / WordsPerMinute))
	return fmt.Sprintf("%d min read", minutes)
}

// FormatDate renders t in loc (local time when nil) with DateLayout.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// Stats summarises a note body.
type Stats struct {
	Words       int    `json:"words"`
	Characters  int    `json:"characters"`
	ReadingTime string `json:"readingTime"`
}

// Analyze computes the statistics of content. HTML markup is not counted.
func Analyze(content string) Stats {
	plain := content
	if IsHTML(content) {
		plain = PlainText(content)
	}
	return Stats{
		Words:       CountWords(plain),
		Characters:  CountCharacters(plain),
		ReadingTime: ReadingTime(plain),
	}
}
