// MIT License

// Copyright (c) 2018 Akhil Indurti

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package delta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// The wire format is the one emitted by Quill:
//
//	{"ops":[{"retain":5},{"insert":"Hello","attributes":{"bold":true}},{"insert":{"image":"a.png"}}]}

type attrsJSON struct {
	Bold       bool   `json:"bold,omitempty"`
	Italic     bool   `json:"italic,omitempty"`
	Code       bool   `json:"code,omitempty"`
	Script     Script `json:"script,omitempty"`
	Link       string `json:"link,omitempty"`
	Header     int    `json:"header,omitempty"`
	Blockquote bool   `json:"blockquote,omitempty"`
	List       List   `json:"list,omitempty"`
	Indent     int    `json:"indent,omitempty"`
	CodeBlock  bool   `json:"code-block,omitempty"`
	Alt        string `json:"alt,omitempty"`
	Width      string `json:"width,omitempty"`
	Height     string `json:"height,omitempty"`
}

func (a Attributes) MarshalJSON() ([]byte, error) {
	return json.Marshal(attrsJSON(a))
}

// UnmarshalJSON is lenient: unknown keys are ignored and values are accepted
// in the loose shapes editors produce (numbers as strings, code-block as a
// language name, widths as numbers).
func (a *Attributes) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*a = Attributes{}
	for k, v := range m {
		switch k {
		case "bold":
			a.Bold = truthy(v)
		case "italic":
			a.Italic = truthy(v)
		case "code":
			a.Code = truthy(v)
		case "script":
			a.Script = Script(str(v))
		case "link":
			a.Link = str(v)
		case "header":
			a.Header = num(v)
		case "blockquote":
			a.Blockquote = truthy(v)
		case "list":
			a.List = List(str(v))
		case "indent":
			a.Indent = num(v)
		case "code-block":
			a.CodeBlock = truthy(v)
		case "alt":
			a.Alt = str(v)
		case "width":
			a.Width = str(v)
		case "height":
			a.Height = str(v)
		}
	}
	return nil
}

func truthy(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	switch {
	case len(v) == 0, bytes.Equal(v, []byte("false")), bytes.Equal(v, []byte("null")):
		return false
	case bytes.Equal(v, []byte(`""`)), bytes.Equal(v, []byte("0")):
		return false
	}
	return true
}

func str(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	v = bytes.TrimSpace(v)
	if bytes.Equal(v, []byte("null")) || bytes.Equal(v, []byte("false")) {
		return ""
	}
	return string(v)
}

func num(v json.RawMessage) int {
	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return int(n)
	}
	if i, err := strconv.Atoi(str(v)); err == nil {
		return i
	}
	return 0
}

func (op Op) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, 2)
	switch op.Kind {
	case KindRetain:
		m["retain"] = op.Count
	case KindDelete:
		m["delete"] = op.Count
	default:
		if op.Embed != nil {
			v := op.Embed.Value
			if len(v) == 0 {
				v = json.RawMessage("true")
			}
			m["insert"] = map[string]json.RawMessage{op.Embed.Type: v}
		} else {
			m["insert"] = op.Text
		}
	}
	if !op.Attrs.IsZero() {
		m["attributes"] = op.Attrs
	}
	return json.Marshal(m)
}

func (op *Op) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*op = Op{}
	if v, ok := m["attributes"]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		if err := json.Unmarshal(v, &op.Attrs); err != nil {
			return fmt.Errorf("attributes: %v", err)
		}
	}
	if v, ok := m["retain"]; ok {
		op.Kind = KindRetain
		op.Count = num(v)
		if op.Count == 0 {
			// retain of an embed object
			op.Count = 1
		}
		return nil
	}
	if v, ok := m["delete"]; ok {
		op.Kind = KindDelete
		op.Count = num(v)
		return nil
	}
	op.Kind = KindInsert
	v, ok := m["insert"]
	if !ok {
		return nil
	}
	v = bytes.TrimSpace(v)
	switch {
	case len(v) > 0 && v[0] == '"':
		return json.Unmarshal(v, &op.Text)
	case len(v) > 0 && v[0] == '{':
		var e map[string]json.RawMessage
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
		for k, val := range e {
			if k == "thematic_break" {
				k = EmbedDivider
			}
			op.Embed = &Embed{Type: k, Value: val}
			break
		}
	}
	// anything else is left as a malformed insert for the consumer to report
	return nil
}

func (d Delta) MarshalJSON() ([]byte, error) {
	ops := d.Ops
	if ops == nil {
		ops = []Op{}
	}
	return json.Marshal(struct {
		Ops []Op `json:"ops"`
	}{ops})
}

// UnmarshalJSON accepts both {"ops":[...]} and a bare array of ops.
func (d *Delta) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, &d.Ops)
	}
	var w struct {
		Ops []Op `json:"ops"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	d.Ops = w.Ops
	return nil
}

// Decode reads one JSON delta from r.
func Decode(r io.Reader) (*Delta, error) {
	var d Delta
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}
