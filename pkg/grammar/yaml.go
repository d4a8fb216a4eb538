package grammar

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/argdump/pkg/errors"
)

// EncodeYAML renders p as a YAML document with the same structure and key
// order as [Codec.Encode].
func (c *Codec) EncodeYAML(p *Parser) ([]byte, error) {
	data, err := c.Encode(p)
	if err != nil {
		return nil, err
	}
	root, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "re-read document")
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(yamlNode(root, typ)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
	}
	return buf.Bytes(), nil
}

// DecodeYAML rebuilds a grammar from a YAML document.
func (c *Codec) DecodeYAML(data []byte) (*Parser, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "document is not valid YAML")
	}
	var buf bytes.Buffer
	writeJSON(&buf, &doc)
	return c.Decode(buf.Bytes())
}

// yamlNode mirrors a JSON token as a YAML node, keeping object key order.
func yamlNode(data []byte, typ jsonparser.ValueType) *yaml.Node {
	switch typ {
	case jsonparser.Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		_ = jsonparser.ObjectEach(data, func(k, v []byte, t jsonparser.ValueType, _ int) error {
			n.Content = append(n.Content, scalar("!!str", key2str(k)), yamlNode(v, t))
			return nil
		})
		return n
	case jsonparser.Array:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		_, _ = jsonparser.ArrayEach(data, func(v []byte, t jsonparser.ValueType, _ int, _ error) {
			n.Content = append(n.Content, yamlNode(v, t))
		})
		return n
	case jsonparser.String:
		return scalar("!!str", str(data, typ))
	case jsonparser.Number:
		if bytes.ContainsAny(data, ".eE") {
			return scalar("!!float", string(data))
		}
		return scalar("!!int", string(data))
	case jsonparser.Boolean:
		return scalar("!!bool", string(data))
	}
	return scalar("!!null", "null")
}

func scalar(tag, v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v}
}

// writeJSON renders a YAML node as JSON. Floats keep a fraction or exponent
// so they stay floats; non-finite floats become null.
func writeJSON(buf *bytes.Buffer, n *yaml.Node) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return
		}
		writeJSON(buf, n.Content[0])
	case yaml.AliasNode:
		writeJSON(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, _ := marshal(n.Content[i].Value, false)
			buf.Write(k)
			buf.WriteByte(':')
			writeJSON(buf, n.Content[i+1])
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSON(buf, c)
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		writeScalar(buf, n)
	default:
		buf.WriteString("null")
	}
}

func writeScalar(buf *bytes.Buffer, n *yaml.Node) {
	switch n.ShortTag() {
	case "!!null":
		buf.WriteString("null")
		return
	case "!!bool":
		var b bool
		if n.Decode(&b) == nil {
			buf.WriteString(strconv.FormatBool(b))
			return
		}
	case "!!int":
		var i int64
		if n.Decode(&i) == nil {
			buf.WriteString(strconv.FormatInt(i, 10))
			return
		}
		var f float64
		if n.Decode(&f) == nil {
			writeFloat(buf, f)
			return
		}
	case "!!float":
		var f float64
		if n.Decode(&f) == nil {
			writeFloat(buf, f)
			return
		}
	}
	s, _ := marshal(n.Value, false)
	buf.Write(s)
}

func writeFloat(buf *bytes.Buffer, f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		buf.WriteString("null")
		return
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	buf.WriteString(s)
}
