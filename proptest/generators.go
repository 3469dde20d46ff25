package proptest

// Charsets for string generation
const (
	CharsetAlpha      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	CharsetAlphaLower = "abcdefghijklmnopqrstuvwxyz"
	CharsetDigits     = "0123456789"
	CharsetAlphaNum   = CharsetAlpha + CharsetDigits
	CharsetPrintable  = CharsetAlphaNum + " !\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// IntRange returns a random int in [min, max].
// Panics if min > max.
func (g *Generator) IntRange(min, max int) int {
	if min > max {
		panic("proptest: IntRange min > max")
	}
	if min == max {
		return min
	}
	return min + g.rng.Intn(max-min+1)
}

// Int64 returns a random int64 (can be negative).
func (g *Generator) Int64() int64 {
	n := g.rng.Int63()
	if g.Bool() {
		n = -n
	}
	return n
}

// String returns a random printable ASCII string of length [0, maxLen].
func (g *Generator) String(maxLen int) string {
	return g.StringFrom(CharsetPrintable, maxLen)
}

// StringFrom returns a random string using characters from the given charset,
// with length [0, maxLen].
func (g *Generator) StringFrom(charset string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	b := make([]byte, g.Intn(maxLen+1))
	for i := range b {
		b[i] = charset[g.Intn(len(charset))]
	}
	return string(b)
}

// Identifier returns a lowercase identifier of length [1, maxLen] that
// starts with a letter.
func (g *Generator) Identifier(maxLen int) string {
	if maxLen <= 0 {
		maxLen = 1
	}
	const bodyChars = CharsetAlphaLower + CharsetDigits + "_"
	b := make([]byte, g.IntRange(1, maxLen))
	b[0] = CharsetAlphaLower[g.Intn(len(CharsetAlphaLower))]
	for i := 1; i < len(b); i++ {
		b[i] = bodyChars[g.Intn(len(bodyChars))]
	}
	return string(b)
}

var edgeStrings = []string{
	"",
	" ",
	"'",
	"''",
	`"`,
	`\`,
	`\'`,
	`\\'`,
	"it's",
	"O'Brien",
	`say "hello"`,
	"line1\nline2",
	"tab\there",
	"\x00",
	"a\x00'b",
	"NULL",
	"?",
	"'?'",
	":name",
	"$1",
	"日本語",
	"🎉",
	"--",
	"/**/",
	"'; DROP TABLE users; --",
	`\'; DROP TABLE users; --`,
}

// EdgeCaseString returns a string that is likely to break naive quoting:
// quotes, backslashes, NUL bytes, placeholder markers and comment tokens.
func (g *Generator) EdgeCaseString() string {
	if g.Float64() < 0.7 {
		return edgeStrings[g.Intn(len(edgeStrings))]
	}
	return g.String(30)
}
