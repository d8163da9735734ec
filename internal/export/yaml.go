package export

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
)

// YAML writes r as YAML with the same keys, order and extra model-supplied
// keys as the JSON export.
func YAML(w io.Writer, r *audit.Report) error {
	data, err := r.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	tree, err := audit.ParseNode(data)
	if err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toYAML(tree)); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return enc.Close()
}

// toYAML converts a JSON tree to a yaml.Node, keeping object key order.
func toYAML(n audit.Node) *yaml.Node {
	switch n.Kind {
	case audit.KindObject:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range n.Keys() {
			v, _ := n.Get(k)
			out.Content = append(out.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				toYAML(v))
		}
		return out
	case audit.KindArray:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range n.Items() {
			out.Content = append(out.Content, toYAML(item))
		}
		return out
	case audit.KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.Text()}
	case audit.KindNumber:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: numberTag(n.Text()), Value: n.Text()}
	case audit.KindBool:
		v := "false"
		if n.BoolValue() {
			v = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

func numberTag(lit string) string {
	for _, c := range lit {
		if c == '.' || c == 'e' || c == 'E' {
			return "!!float"
		}
	}
	return "!!int"
}
