package report

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sandrolain/gordl/pkg/diag"
	"github.com/sandrolain/gordl/pkg/types"
)

// element is one XML element of the source document. Namespaces are
// dropped: elements and attributes are matched by local name.
type element struct {
	name     string
	attrs    []xml.Attr
	text     strings.Builder
	children []*element
	pos      diag.Pos
}

// attr returns the value of the attribute with local name name.
func (e *element) attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// value returns the character data of a leaf element, trimmed.
func (e *element) value() string {
	return strings.TrimSpace(e.text.String())
}

// rawValue returns the character data untrimmed. Expression sources keep
// their spacing so that error offsets point into the original text.
func (e *element) rawValue() string {
	return e.text.String()
}

// SourceError reports a document that could not be read as XML at all.
type SourceError struct {
	Pos diag.Pos
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s at %s: malformed report definition: %v", types.ErrMalformedSource, e.Pos, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// parseTree reads the whole document into an element tree.
func parseTree(r io.Reader) (*element, error) {
	d := xml.NewDecoder(r)
	d.Strict = true

	var (
		root  *element
		stack []*element
	)
	for {
		line, col := d.InputPos()
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &SourceError{Pos: diag.Pos{Line: line, Col: col}, Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{
				name:  t.Name.Local,
				attrs: t.Attr,
				pos:   diag.Pos{Line: line, Col: col},
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, &SourceError{Pos: el.pos, Err: errors.New("more than one root element")}
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, &SourceError{Pos: diag.Pos{Line: 1, Col: 1}, Err: errors.New("empty document")}
	}
	return root, nil
}
