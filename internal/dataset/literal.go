package dataset

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

var (
	literalInt     = regexp.MustCompile(`^[-+]?(?:[1-9](?:_?\d)*|0(?:_?0)*|0[xX](?:_?[0-9a-fA-F])+|0[oO](?:_?[0-7])+|0[bB](?:_?[01])+)$`)
	literalLeading = regexp.MustCompile(`^[-+]?0(?:_?\d)+$`)
	literalFloat   = regexp.MustCompile(`^[-+]?(?:\d(?:_?\d)*\.(?:\d(?:_?\d)*)?|\.\d(?:_?\d)*|\d(?:_?\d)*)(?:[eE][-+]?\d(?:_?\d)*)?$`)
)

// parseLiteral reads a mapping written as a literal: quoted strings with
// backslash escapes, True/False/None, numbers, lists, tuples and nested
// mappings. The text is first rewritten into a YAML flow document so the
// structure can be decoded by yaml.v3; anything that is not one of those
// literals is an error.
func parseLiteral(data []byte) (Detail, error) {
	normalized, err := normalizeLiteral(data)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(normalized, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("top-level value is not a mapping")
	}
	v, err := literalValue(root)
	if err != nil {
		return nil, err
	}
	return Detail(v.(map[string]any)), nil
}

type literalFrame struct {
	open  byte
	pos   int
	comma bool
	empty bool
}

// normalizeLiteral re-emits every quoted string as a YAML double-quoted
// scalar with its escapes already decoded, turns tuples into flow
// sequences and drops grouping parentheses.
func normalizeLiteral(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)+len(data)/8)
	var stack []*literalFrame
	touch := func() {
		if len(stack) > 0 {
			stack[len(stack)-1].empty = false
		}
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch c {
		case '\'', '"':
			s, next, err := readQuoted(data, i)
			if err != nil {
				return nil, err
			}
			touch()
			out = append(out, strconv.Quote(s)...)
			i = next - 1
		case '(', '[', '{':
			touch()
			stack = append(stack, &literalFrame{open: c, pos: len(out), empty: true})
			if c == '(' {
				c = '['
			}
			out = append(out, c)
		case ')', ']', '}':
			if len(stack) == 0 {
				return nil, fmt.Errorf("offset %d: unmatched %q", i, c)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if want := map[byte]byte{'(': ')', '[': ']', '{': '}'}[top.open]; want != c {
				return nil, fmt.Errorf("offset %d: %q does not close %q", i, c, top.open)
			}
			switch {
			case c != ')':
				out = append(out, c)
			case top.comma || top.empty:
				out = append(out, ']')
			default:
				out[top.pos] = ' '
				out = append(out, ' ')
			}
		case ',':
			if len(stack) > 0 {
				stack[len(stack)-1].comma = true
			}
			out = append(out, c)
		case ':':
			out = append(out, ':', ' ')
		case ' ', '\t', '\r', '\n':
			out = append(out, c)
		default:
			touch()
			out = append(out, c)
		}
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed %q", stack[len(stack)-1].open)
	}
	return out, nil
}

// readQuoted decodes the quoted string starting at data[start] and returns
// it with the offset just past the closing quote.
func readQuoted(data []byte, start int) (string, int, error) {
	quote := data[start]
	var b strings.Builder
	for i := start + 1; i < len(data); i++ {
		c := data[i]
		switch {
		case c == quote:
			s := b.String()
			if !utf8.ValidString(s) {
				return "", 0, fmt.Errorf("offset %d: string is not valid UTF-8", start)
			}
			return s, i + 1, nil
		case c == '\n':
			return "", 0, fmt.Errorf("offset %d: unterminated string", start)
		case c != '\\':
			b.WriteByte(c)
			continue
		}

		i++
		if i >= len(data) {
			break
		}
		switch e := data[i]; e {
		case '\n':
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(data) && j < i+3 && data[j] >= '0' && data[j] <= '7' {
				j++
			}
			n, _ := strconv.ParseUint(string(data[i:j]), 8, 32)
			b.WriteRune(rune(n))
			i = j - 1
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+width >= len(data) {
				return "", 0, fmt.Errorf("offset %d: truncated \\%c escape", i-1, e)
			}
			n, err := strconv.ParseUint(string(data[i+1:i+1+width]), 16, 32)
			if err != nil || n > utf8.MaxRune {
				return "", 0, fmt.Errorf("offset %d: invalid \\%c escape", i-1, e)
			}
			b.WriteRune(rune(n))
			i += width
		case 'N':
			return "", 0, fmt.Errorf("offset %d: named unicode escapes are not supported", i-1)
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return "", 0, fmt.Errorf("offset %d: unterminated string", start)
}

func literalValue(n *yaml.Node) (any, error) {
	if n.Anchor != "" || n.Kind == yaml.AliasNode || n.Style&yaml.TaggedStyle != 0 {
		return nil, fmt.Errorf("line %d: anchors, aliases and tags are not literals", n.Line)
	}
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Style {
		case yaml.DoubleQuotedStyle:
			return n.Value, nil
		case 0, yaml.FlowStyle:
			return plainLiteral(n.Value, n.Line)
		default:
			return nil, fmt.Errorf("line %d: unsupported scalar", n.Line)
		}
	case yaml.SequenceNode:
		if n.Style&yaml.FlowStyle == 0 {
			return nil, fmt.Errorf("line %d: block sequences are not literals", n.Line)
		}
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := literalValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		if n.Style&yaml.FlowStyle == 0 {
			return nil, fmt.Errorf("line %d: block mappings are not literals", n.Line)
		}
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: unsupported mapping key", k.Line)
			}
			key, err := literalValue(k)
			if err != nil {
				return nil, err
			}
			v, err := literalValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[literalKey(key)] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported node", n.Line)
	}
}

func literalKey(v any) string {
	switch k := v.(type) {
	case string:
		return k
	case nil:
		return "None"
	case bool:
		if k {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(k)
	}
}

// plainLiteral decodes an unquoted token: None, True, False or a number.
func plainLiteral(s string, line int) (any, error) {
	switch s {
	case "None":
		return nil, nil
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "":
		return nil, fmt.Errorf("line %d: missing value", line)
	}
	if literalLeading.MatchString(s) && strings.Trim(s, "+-0_") != "" {
		return nil, fmt.Errorf("line %d: leading zeros in decimal integer %q", line, s)
	}
	if literalInt.MatchString(s) {
		n, ok := new(big.Int).SetString(strings.TrimPrefix(s, "+"), 0)
		if !ok {
			return nil, fmt.Errorf("line %d: invalid integer %q", line, s)
		}
		if n.IsInt64() {
			return int(n.Int64()), nil
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, nil
	}
	if literalFloat.MatchString(s) {
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid number %q", line, s)
		}
		return f, nil
	}
	return nil, fmt.Errorf("line %d: %q is not a literal", line, s)
}
