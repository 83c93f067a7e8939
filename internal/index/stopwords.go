package index

// spanishLegalStopwords are function words plus boilerplate verbs that carry
// no signal in Dominican legal text ("deberá", "mediante", "dicho"). Terms
// are stored accent-folded because tokenization folds accents.
var spanishLegalStopwords = map[string]struct{}{}

func init() {
	words := []string{
		"el", "la", "de", "que", "y", "a", "en", "un", "es", "se", "no", "te",
		"lo", "le", "da", "su", "por", "son", "con", "para", "al", "del", "los",
		"las", "uno", "una", "esta", "muy", "fue", "han", "era", "mas", "sin",
		"sobre", "entre", "cuando", "todo", "ser", "tiene",
		"pueden", "debe", "debera", "sera", "segun", "mediante", "dicho", "dicha",
	}
	for _, w := range words {
		spanishLegalStopwords[w] = struct{}{}
	}
}

// isStopword reports whether the accent-folded, lowercased token is a stopword.
func isStopword(token string) bool {
	_, ok := spanishLegalStopwords[token]
	return ok
}
