package citation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

var stopWords = toSet(
	"šta", "sta", "koji", "koja", "koje", "kojoj", "kojem", "kojim", "koju", "kojih",
	"kako", "kada", "kad", "gdje", "gde", "zašto", "zasto", "koliko", "čemu", "čega",
	"ovo", "ovaj", "ova", "ove", "ovog", "taj", "tog", "toga", "tome", "tim", "tako",
	"biti", "bilo", "bila", "bio", "bude", "može", "moze", "mogu", "možete", "mozete",
	"ima", "imaju", "imate", "nije", "jeste", "sve", "svih", "svi", "samo", "još", "jos",
	"već", "vec", "prema", "između", "preko", "nakon", "prije", "oko", "onda", "dok",
	"kroz", "mene", "meni", "vama", "nama", "njih", "njega", "neki", "neka", "neko",
	"nešto", "mnogo", "više", "vise", "manje", "vrlo", "veoma", "takođe", "također",
	"treba", "trebam", "molim", "hvala", "about", "what", "which", "when", "where",
	"does", "this", "that", "with", "from", "have", "there",
)

// domain is a topic recognized in questions, answers and documents by term stems.
type domain struct {
	name  string
	stems []string
	// expands are added to a question's keywords when it touches the domain.
	expands []string
}

var domains = []domain{
	{
		name:    "payments",
		stems:   []string{"sepa", "plaćanj", "placanj", "transfer", "uplat", "iban", "swift", "transakcij", "naknad", "debit"},
		expands: []string{"sepa", "plaćanja"},
	},
	{
		name:    "geography",
		stems:   []string{"crna gora", "crne gore", "crnoj gori", "crnu goru", "evrop", "zemalj", "zemlj"},
		expands: []string{"crnoj gori"},
	},
	{
		name:  "currency",
		stems: []string{"valut", "marka", "marke", "dinar", "eurozon"},
	},
	{
		name:  "institution",
		stems: []string{"cbcg", "centralna banka", "centralne banke", "guverner"},
	},
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Keywords returns the distinct non-stop-word tokens of text with at least minLen characters,
// in order of first appearance. Numbers are excluded.
func Keywords(text string, minLen int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, token := range document.Tokenize(text) {
		if utf8.RuneCountInString(token) < minLen || document.IsNumeric(token) {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// questionKeywords extracts question keywords and appends the expansions of every domain it touches.
func questionKeywords(question string, minLen int) []string {
	kws := Keywords(question, minLen)
	lower := strings.ToLower(question)
	for _, d := range domains {
		if !containsAny(lower, d.stems) {
			continue
		}
		for _, term := range d.expands {
			if !contains(kws, term) {
				kws = append(kws, term)
			}
		}
	}
	return kws
}

// numbers returns numeric tokens of at least two digits.
func numbers(text string) []string {
	var out []string
	for _, token := range document.Tokenize(text) {
		if len(token) >= 2 && document.IsNumeric(token) && !contains(out, token) {
			out = append(out, token)
		}
	}
	return out
}

// acronyms counts distinct all-caps words such as SEPA or IBAN.
func acronyms(text string) int {
	seen := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if utf8.RuneCountInString(field) < 2 || strings.ToUpper(field) != field {
			continue
		}
		seen[field] = struct{}{}
	}
	return len(seen)
}

// domainsOf returns the names of the domains text touches.
func domainsOf(lower string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, d := range domains {
		if containsAny(lower, d.stems) {
			out[d.name] = struct{}{}
		}
	}
	return out
}

// countIn counts how many terms occur in lower.
func countIn(lower string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			n++
		}
	}
	return n
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
