package tree

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAML form, used by the REPL and for document export. Properties keep
// their insertion order, so dumps stay readable and diffable.

func (n *Node) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	appendPair(root, "tag", &yaml.Node{Kind: yaml.ScalarNode, Value: n.Tag})
	if len(n.props) > 0 {
		props := &yaml.Node{Kind: yaml.MappingNode}
		for _, p := range n.props {
			var val yaml.Node
			if err := val.Encode(p.Value); err != nil {
				return nil, err
			}
			appendPair(props, p.Key, &val)
		}
		appendPair(root, "props", props)
	}
	if len(n.children) > 0 {
		kids := &yaml.Node{Kind: yaml.SequenceNode}
		for _, c := range n.children {
			sub, err := c.MarshalYAML()
			if err != nil {
				return nil, err
			}
			kids.Content = append(kids.Content, sub.(*yaml.Node))
		}
		appendPair(root, "children", kids)
	}
	return root, nil
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
}

func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("helio: node must be a mapping, got %v", value.Kind)
	}
	*n = Node{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i].Value, value.Content[i+1]
		switch key {
		case "tag":
			n.Tag = val.Value
		case "props":
			if val.Kind != yaml.MappingNode {
				return fmt.Errorf("helio: props must be a mapping")
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				var raw any
				if err := val.Content[j+1].Decode(&raw); err != nil {
					return err
				}
				n.SetProperty(val.Content[j].Value, raw)
			}
		case "children":
			if val.Kind != yaml.SequenceNode {
				return fmt.Errorf("helio: children must be a sequence")
			}
			for _, item := range val.Content {
				child := &Node{}
				if err := item.Decode(child); err != nil {
					return err
				}
				n.children = append(n.children, child)
			}
		}
	}
	return nil
}
