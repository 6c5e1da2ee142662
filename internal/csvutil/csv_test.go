package csvutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteField(t *testing.T) {
	assert.Equal(t, `"plain"`, QuoteField("plain"))
	assert.Equal(t, `"a,b"`, QuoteField("a,b"))
	assert.Equal(t, `"He said ""hi"""`, QuoteField(`He said "hi"`))
	assert.Equal(t, `""`, QuoteField(""))
}

func TestFormatRow(t *testing.T) {
	row := FormatRow([]string{"Ada", "ada@example.com", `He said "hi", thanks`})
	assert.Equal(t, `"Ada","ada@example.com","He said ""hi"", thanks"`, row)
}

func TestParseLine(t *testing.T) {
	fields := ParseLine(`"Ada","ada@example.com","He said ""hi"", thanks"`)
	assert.Equal(t, []string{"Ada", "ada@example.com", `He said "hi", thanks`}, fields)
}

func TestParseLine_Unquoted(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseLine("a,b,c"))
	assert.Equal(t, []string{"a", "", "c"}, ParseLine("a,,c"))
	assert.Equal(t, []string{""}, ParseLine(""))
}

func TestParseLine_MixedQuoting(t *testing.T) {
	assert.Equal(t, []string{"a", "b,c", "d"}, ParseLine(`a,"b,c",d`))
}

func TestRoundTrip(t *testing.T) {
	original := []string{"Grace", "", `notes with, comma and "quotes"`, "line end"}
	assert.Equal(t, original, ParseLine(FormatRow(original)))
}

func TestSplitLines(t *testing.T) {
	lines := SplitLines("header\r\nrow1\n\nrow2\n")
	assert.Equal(t, []string{"header", "row1", "row2"}, lines)
}
