package sim

import (
	"strconv"
	"strings"
)

// A Name is a hierarchical name made of tokens separated by dots, for
// example "Bench.Sink.Ready" or "Bench.Lane[3].Source".
type Name struct {
	Tokens []NameToken
}

// NameToken is one dot-separated element of a name.
type NameToken struct {
	ElemName string
	Index    []int
}

// ParseName parses a name string. It panics if brackets do not match or an
// index is not an integer.
func ParseName(sname string) Name {
	tokens := strings.Split(sname, ".")
	name := Name{Tokens: make([]NameToken, len(tokens))}

	for i, token := range tokens {
		name.Tokens[i] = parseNameToken(token)
	}

	return name
}

func parseNameToken(token string) NameToken {
	bracketMustMatch(token)

	parts := strings.Split(token, "[")
	indices := make([]int, 0, len(parts)-1)

	for _, p := range parts[1:] {
		index, err := strconv.Atoi(strings.TrimSuffix(p, "]"))
		if err != nil {
			panic("name index must be integer")
		}

		indices = append(indices, index)
	}

	return NameToken{ElemName: parts[0], Index: indices}
}

func bracketMustMatch(token string) {
	depth := 0

	for _, c := range token {
		switch c {
		case '[':
			depth++
		case ']':
			depth--
		}

		if depth < 0 || depth > 1 {
			panic("name bracket must match")
		}
	}

	if depth != 0 {
		panic("name bracket must match")
	}
}

// NameMustBeValid panics if the name does not follow the naming convention:
//  1. elements are separated by single dots ("A.B", not "A..B" or "A.");
//  2. every element starts with a capital letter;
//  3. elements do not contain '_', '-' or quotes;
//  4. elements in a series use square brackets ("Lane[2]").
func NameMustBeValid(name string) {
	defer func() {
		if r := recover(); r != nil {
			panic("name " + name + " is not valid: " + r.(string))
		}
	}()

	n := ParseName(name)
	for _, token := range n.Tokens {
		tokenMustBeValid(token)
	}
}

func tokenMustBeValid(token NameToken) {
	if token.ElemName == "" {
		panic("name element must not be empty")
	}

	if strings.ContainsAny(token.ElemName, "_\"'-") {
		panic("name element must not contain _, -, or quotes")
	}

	if token.ElemName[0] < 'A' || token.ElemName[0] > 'Z' {
		panic("name element must start with a capital letter")
	}
}

// BuildName builds a name from a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex builds a name from a parent name, an element name and an
// index.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName, elementName+"["+strconv.Itoa(index)+"]")
}
