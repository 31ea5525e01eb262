package assembler

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

//Part is one transcribed piece of a recording
type Part struct {
	Index   int
	Text    string
	Success bool
}

var spaceRegexp = regexp.MustCompile(`\s{2,}`)

//Assemble joins transcribed parts into one transcript.
//Failed parts are dropped, the rest are sorted by index and joined
//with a heuristic fixing sentence boundaries between parts
func Assemble(parts []Part) string {
	ok := make([]Part, 0, len(parts))
	for _, p := range parts {
		if p.Success && strings.TrimSpace(p.Text) != "" {
			ok = append(ok, p)
		}
	}
	sort.Slice(ok, func(i, j int) bool { return ok[i].Index < ok[j].Index })
	res := ""
	for _, p := range ok {
		res = join(res, strings.TrimSpace(p.Text))
	}
	return spaceRegexp.ReplaceAllString(res, " ")
}

func join(acc, next string) string {
	if acc == "" {
		return next
	}
	if endsSentence(acc) {
		return acc + " " + next
	}
	if startsUpper(next) {
		// synthesize a sentence boundary
		return acc + ". " + next
	}
	return acc + " " + next
}

func endsSentence(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r == '.' || r == '!' || r == '?'
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
