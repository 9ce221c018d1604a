package refine

import (
	"strings"

	"github.com/rohankatakam/ptmine/internal/editscript"
)

const (
	labelImportDeclaration = "ImportDeclaration"
	labelQualifiedName     = "QualifiedName"
	labelTextElement       = "TextElement"
	labelAnnotation        = "Annotation"
	labelModifier          = "Modifier"

	// importKeywordWidth widens a QualifiedName span left over "import "
	importKeywordWidth = len("import ")
)

func isImportAction(a editscript.Action) bool {
	return a.Node.HasPrefix(labelImportDeclaration) || a.Node.HasPrefix(labelQualifiedName)
}

func isTextElement(a editscript.Action) bool {
	return a.Node.Type() == labelTextElement
}

func isAnnotationOrModifier(a editscript.Action) bool {
	return strings.Contains(a.Node.Label, labelAnnotation) || a.Node.HasPrefix(labelModifier)
}

// tokenSeparators is the lexical split set for overlap checks
const tokenSeparators = " \n@\\/,;{}[]().+=:\""

// tokenize splits s on tokenSeparators and discards empty tokens
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(tokenSeparators, r)
	})
}

type stringSet map[string]struct{}

func (s stringSet) add(v string) { s[v] = struct{}{} }

func (s stringSet) intersects(other stringSet) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for v := range small {
		if _, ok := large[v]; ok {
			return true
		}
	}
	return false
}

// touches reports whether any changed path equals target exactly
func touches(changed []string, target string) bool {
	for _, c := range changed {
		if c == target {
			return true
		}
	}
	return false
}
