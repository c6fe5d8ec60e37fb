package text

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInferTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"Markdown H1", "intro line\n\n# Real Title\n\nbody", "Real Title"},
		{"Markdown H1 With Emphasis", "# The *quick* `fox`", "The quick fox"},
		{"Markdown Lower Heading", "## Section\n\ntext", "Section"},
		{"Markdown H1 Beats Earlier H2", "## Sub\n\n# Main", "Main"},
		{"Markdown Paragraph First Line", "first line\nsecond line\n\nnext", "first line"},
		{"Setext Heading", "Title\n=====\n\nbody", "Title"},
		{"Empty", "", ""},
		{"Only Whitespace", "   \n\n  ", ""},
		{"HTML H1", "<p>lead</p><h1>Heading <em>one</em></h1>", "Heading one"},
		{"HTML Paragraph", "<p>first<br>second</p><p>other</p>", "first"},
		{"HTML Nothing", "<div></div>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferTitle(tt.content))
		})
	}
}

func TestIsHTML(t *testing.T) {
	assert.True(t, IsHTML("  <p>x</p>"))
	assert.False(t, IsHTML("# heading"))
	assert.False(t, IsHTML("a < b"))
}

func TestCounts(t *testing.T) {
	assert.Equal(t, 0, CountWords("   "))
	assert.Equal(t, 4, CountWords(" one two\tthree\nfour "))
	assert.Equal(t, 8, CountCharacters("ab cd\n\tef gh"))
	assert.Equal(t, 3, CountCharacters("çé ü"))
}

func TestReadingTime(t *testing.T) {
	words := func(n int) string {
		b := make([]byte, 0, n*2)
		for i := 0; i < n; i++ {
			b = append(b, 'w', ' ')
		}
		return string(b)
	}

	assert.Equal(t, "0 min read", ReadingTime(""))
	assert.Equal(t, "1 min read", ReadingTime(words(1)))
	assert.Equal(t, "1 min read", ReadingTime(words(200)))
	assert.Equal(t, "2 min read", ReadingTime(words(201)))
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, 3, 5, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "Mar 5, 2024, 3:04 PM", FormatDate(ts, time.UTC))
}

func TestAnalyze(t *testing.T) {
	st := Analyze("<h1>Hello</h1><p>big world</p>")
	assert.Equal(t, Stats{Words: 3, Characters: 13, ReadingTime: "1 min read"}, st)

	st = Analyze("# Hello\n\nbig world")
	assert.Equal(t, 4, st.Words, "markdown syntax counts as written")
}
