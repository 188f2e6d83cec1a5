package match

import "strings"

var soundexCodes = map[rune]rune{
	'B': '1', 'F': '1', 'P': '1', 'V': '1',
	'C': '2', 'G': '2', 'J': '2', 'K': '2', 'Q': '2', 'S': '2', 'X': '2', 'Z': '2',
	'D': '3', 'T': '3',
	'L': '4',
	'M': '5', 'N': '5',
	'R': '6',
}

// soundex computes the classic 4-character Soundex code for a word.
// Multi-word input is coded on the first word.
func soundex(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	if s == "" {
		return ""
	}

	result := s[:1]
	prev := soundexCodes[rune(s[0])]
	for _, r := range s[1:] {
		code, ok := soundexCodes[r]
		if !ok {
			// H and W are transparent; vowels break runs.
			if r != 'H' && r != 'W' {
				prev = 0
			}
			continue
		}
		if code != prev {
			result += string(code)
			if len(result) == 4 {
				return result
			}
		}
		prev = code
	}
	for len(result) < 4 {
		result += "0"
	}
	return result
}
