package translation

import (
	"fmt"
	"regexp"
	"strings"
)

// inviolableMarker matches {{term}} spans that must pass through a
// translation call unchanged — proper nouns, honorifics, running gags, etc.
var inviolableMarker = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Glossary holds inviolable term markers. Protect replaces every {{term}}
// span with an opaque placeholder token before a line is sent to a
// translation provider; Restore puts the original term back afterward. This
// guarantees the provider never sees (and therefore never mistranslates)
// glossary-protected text.
type Glossary struct{}

// Protect returns the text with every {{term}} span replaced by a numbered
// placeholder, plus the map needed to restore them.
func (Glossary) Protect(text string) (string, map[string]string) {
	tokens := make(map[string]string)
	n := 0
	protected := inviolableMarker.ReplaceAllStringFunc(text, func(match string) string {
		term := inviolableMarker.FindStringSubmatch(match)[1]
		token := fmt.Sprintf("\x00GLOSSARY%d\x00", n)
		tokens[token] = term
		n++
		return token
	})
	return protected, tokens
}

// Restore replaces placeholder tokens back with their original glossary terms.
func (Glossary) Restore(text string, tokens map[string]string) string {
	for token, term := range tokens {
		text = strings.ReplaceAll(text, token, term)
	}
	return text
}
