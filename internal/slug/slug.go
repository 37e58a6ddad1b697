// Package slug converts free text into URL-safe slugs and fuzzy search keys.
package slug

import (
	"strconv"
	"strings"
)

// translit maps Cyrillic letters to their Latin spelling. Unmapped
// characters pass through and are cleaned up afterwards.
var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ё': "e", 'ж': "zh", 'з': "z", 'и': "i",
	'й': "y", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "sch", 'ь': "", 'ы': "y", 'ъ': "",
	'э': "e", 'ю': "yu", 'я': "ya",
}

// Make lowercases value, transliterates Cyrillic letters and reduces the
// result to hyphen-separated [a-z0-9] words. The output is idempotent:
// Make(Make(x)) == Make(x).
func Make(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		if mapped, ok := translit[r]; ok {
			b.WriteString(mapped)
			continue
		}
		b.WriteRune(r)
	}

	cleaned := make([]rune, 0, b.Len())
	for _, r := range b.String() {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			cleaned = append(cleaned, r)
		default:
			cleaned = append(cleaned, ' ')
		}
	}

	joined := strings.Join(strings.Fields(string(cleaned)), "-")
	for strings.Contains(joined, "--") {
		joined = strings.ReplaceAll(joined, "--", "-")
	}
	return strings.Trim(joined, "-")
}

// SearchKey builds the coarse key used for fuzzy film matching: the slug
// of the title with each word run through a crude de-suffixing step, plus
// the year ("unknown" when absent). The de-suffixing is intentionally
// lossy so inflectional variants of one title collide on the same key.
// Returns "" when the title yields no slug at all.
func SearchKey(title string, year int) string {
	base := Make(title)
	if base == "" {
		return ""
	}

	words := strings.Split(base, "-")
	for i, word := range words {
		words[i] = normalizeWord(word)
	}
	canonical := strings.Join(words, "-")
	if canonical == "" {
		return ""
	}

	suffix := "unknown"
	if year > 0 {
		suffix = strconv.Itoa(year)
	}
	return canonical + "-" + suffix
}

func normalizeWord(word string) string {
	if strings.HasSuffix(word, "ya") {
		return word[:len(word)-2] + "y"
	}
	if strings.HasSuffix(word, "ye") {
		return word[:len(word)-1]
	}
	if len(word) > 4 && strings.ContainsRune("aeiuy", rune(word[len(word)-1])) {
		return word[:len(word)-1]
	}
	return word
}
