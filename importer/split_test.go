package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, '\t', DetectDelimiter("a\tb|c,d"))
	assert.Equal(t, '|', DetectDelimiter("| a | b, c |"))
	assert.Equal(t, ',', DetectDelimiter("a,b"))
	assert.Equal(t, ',', DetectDelimiter("single cell"))
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		delim rune
		want  []string
	}{
		{"tab", "Launch\tNew region\t in progress ", '\t', []string{"Launch", "New region", "in progress"}},
		{"tab keeps empty cells", "Launch\t\tdone", '\t', []string{"Launch", "", "done"}},
		{"comma with quotes", `"Migrate, then retire",legacy ERP,done`, ',', []string{"Migrate, then retire", "legacy ERP", "done"}},
		{"escaped quote", `"The ""big"" one",x`, ',', []string{`The "big" one`, "x"}},
		{"quote after spaces", `  "a,b" ,c`, ',', []string{"a,b", "c"}},
		{"quote inside cell is literal", `6" pipe,x`, ',', []string{`6" pipe`, "x"}},
		{"bordered pipe", "| Title | Status |", '|', []string{"Title", "Status"}},
		{"pipe keeps inner empty", "| a || c |", '|', []string{"a", "", "c"}},
		{"unbordered pipe", "a | b", '|', []string{"a", "b"}},
		{"unterminated quote runs to end", `"open, cell`, ',', []string{"open, cell"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLine(tt.line, tt.delim))
		})
	}
}

func TestIsSeparatorRow(t *testing.T) {
	assert.True(t, isSeparatorRow([]string{"---", ":---:", "--:"}))
	assert.False(t, isSeparatorRow([]string{"---", "x"}))
	assert.False(t, isSeparatorRow([]string{"", "---"}))
	assert.False(t, isSeparatorRow(nil))
}
