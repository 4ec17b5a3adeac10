package content

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Frontmatter holds the page fields docsite understands. Unknown keys are ignored.
type Frontmatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Weight      int    `yaml:"weight"`
	Draft       bool   `yaml:"draft"`
}

// splitFrontmatter separates YAML frontmatter (`---` delimited) from the Markdown body.
// If the document does not start with a delimiter, fm is nil and body is the full input.
func splitFrontmatter(content []byte) (fm []byte, body []byte, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// a closing delimiter on the last line without a newline
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			return content[start : len(content)-len("---")], []byte{}, nil
		}
		return nil, nil, ErrMissingClosingDelimiter
	}
	return content[start : start+idx+len(nl)], content[start+idx+len(closeSeq):], nil
}

func parseFrontmatter(raw []byte) (Frontmatter, error) {
	var fm Frontmatter
	if len(bytes.TrimSpace(raw)) == 0 {
		return fm, nil
	}
	err := yaml.Unmarshal(raw, &fm)
	return fm, err
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
