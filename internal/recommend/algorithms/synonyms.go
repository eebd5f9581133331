// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package algorithms

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SynonymTable maps query phrases to canonical catalog terms. Lookups
// are case-insensitive and diacritic-insensitive, so a table entry for
// "hành động" also matches "hanh dong" and "Hanh Dong".
type SynonymTable struct {
	entries map[string][]string
}

// NewSynonymTable builds a table from phrase to canonical expansions.
// A nil or empty mapping produces the built-in default table.
func NewSynonymTable(mapping map[string][]string) *SynonymTable {
	if len(mapping) == 0 {
		mapping = defaultSynonyms
	}

	t := &SynonymTable{entries: make(map[string][]string, len(mapping)*2)}
	for phrase, expansions := range mapping {
		key := foldKey(phrase)
		t.entries[key] = append(t.entries[key], expansions...)

		// Register the diacritic-stripped variant too so tables loaded
		// from files do not need to list "hanh dong" next to "hành động".
		if stripped := stripDiacritics(key); stripped != key {
			t.entries[stripped] = append(t.entries[stripped], expansions...)
		}
	}
	return t
}

// Expand maps a raw query to search terms. Multi-word synonym phrases
// are matched greedily before individual tokens. Word tokens without a
// table entry are dropped; tokens carrying a digit (release years, spec
// values like "8gb") pass through, they are their own canonical form.
// The result preserves query order and drops duplicates.
func (t *SynonymTable) Expand(query string) []string {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	var terms []string
	seen := make(map[string]bool)
	add := func(term string) {
		key := foldKey(term)
		if !seen[key] {
			seen[key] = true
			terms = append(terms, term)
		}
	}

	for i := 0; i < len(tokens); {
		matched := false
		// Longest phrase first, down to a single token.
		for n := min(3, len(tokens)-i); n >= 1; n-- {
			phrase := strings.Join(tokens[i:i+n], " ")
			if expansions, ok := t.lookup(phrase); ok {
				for _, e := range expansions {
					add(e)
				}
				i += n
				matched = true
				break
			}
		}
		if !matched {
			if hasDigit(tokens[i]) {
				add(tokens[i])
			}
			i++
		}
	}

	return terms
}

func (t *SynonymTable) lookup(phrase string) ([]string, bool) {
	key := foldKey(phrase)
	if e, ok := t.entries[key]; ok {
		return e, true
	}
	e, ok := t.entries[stripDiacritics(key)]
	return e, ok
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// foldKey lowercases and collapses whitespace for table lookups.
func foldKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// stripDiacritics removes combining marks, mapping "hành động" to
// "hanh dong". Vietnamese đ/Đ are not combining forms and are mapped
// explicitly.
func stripDiacritics(s string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(tr, s)
	if err != nil {
		return s
	}
	out = strings.ReplaceAll(out, "đ", "d")
	out = strings.ReplaceAll(out, "Đ", "D")
	return out
}

// defaultSynonyms covers the store's bilingual catalog vocabulary.
var defaultSynonyms = map[string][]string{
	// Genres, Vietnamese and English.
	"hành động":   {"Action"},
	"phiêu lưu":   {"Adventure"},
	"giải đố":     {"Puzzle"},
	"nhập vai":    {"RPG"},
	"chiến thuật": {"Strategy"},
	"thể thao":    {"Sports"},
	"đua xe":      {"Racing"},
	"kinh dị":     {"Horror"},
	"mô phỏng":    {"Simulation"},
	"bắn súng":    {"Shooter"},
	"đối kháng":   {"Fighting"},
	"action":      {"Action"},
	"adventure":   {"Adventure"},
	"puzzle":      {"Puzzle"},
	"rpg":         {"RPG"},
	"strategy":    {"Strategy"},
	"racing":      {"Racing"},
	"horror":      {"Horror"},
	"shooter":     {"Shooter"},

	// Play modes. "co op" covers the hyphenated spelling, the tokenizer
	// splits it into two tokens.
	"nhiều người chơi": {"multiplayer"},
	"chơi mạng":        {"multiplayer", "online"},
	"một người chơi":   {"singleplayer"},
	"choi mang":        {"multiplayer", "online"},
	"multiplayer":      {"multiplayer"},
	"coop":             {"multiplayer", "coop"},
	"co op":            {"multiplayer", "coop"},
	"online":           {"online", "multiplayer"},
	"offline":          {"offline", "singleplayer"},

	// Platforms.
	"máy tính":   {"PC", "Windows"},
	"điện thoại": {"Mobile", "Android", "iOS"},
	"pc":         {"PC", "Windows"},
	"mobile":     {"Mobile", "Android", "iOS"},

	// Audience.
	"trẻ em":     {"E", "Everyone"},
	"gia đình":   {"E", "Everyone"},
	"người lớn":  {"M", "Mature"},
	"miễn phí":   {"free"},
	"tiếng việt": {"Vietnamese"},
	"vietnamese": {"Vietnamese"},
}
