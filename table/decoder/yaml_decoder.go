package decoder

import (
	"github.com/hatlonely/pipesize/table"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// YamlDecoder YAML 格式，通过 yaml.Node 保留 key 顺序
type YamlDecoder struct {
	rootKey string
}

func NewYamlDecoderWithOptions(options *Options) *YamlDecoder {
	return &YamlDecoder{rootKey: options.rootKey()}
}

func (d *YamlDecoder) Decode(data []byte) ([]table.Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "yaml.Unmarshal failed")
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root, err := fromYAMLNode(doc.Content[0])
	if err != nil {
		return nil, err
	}
	return extract(root, d.rootKey)
}

func fromYAMLNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		obj := newObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			val, err := fromYAMLNode(v)
			if err != nil {
				return nil, err
			}
			obj.set(k.Value, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := fromYAMLNode(c)
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		return list, nil
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, errors.Wrapf(err, "line %d", n.Line)
		}
		return v, nil
	default:
		return nil, errors.Errorf("unexpected yaml node kind %v at line %d", n.Kind, n.Line)
	}
}

func (d *YamlDecoder) Encode(records []table.Record) ([]byte, error) {
	rows := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range records {
		row := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range r.Keys() {
			v, _ := r.Get(k)
			var vn yaml.Node
			if err := vn.Encode(native(v)); err != nil {
				return nil, errors.Wrapf(err, "encode %s", k)
			}
			row.Content = append(row.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, &vn)
		}
		rows.Content = append(rows.Content, row)
	}

	root := &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: d.rootKey},
			rows,
		},
	}
	out, err := yaml.Marshal(root)
	if err != nil {
		return nil, errors.Wrap(err, "yaml.Marshal failed")
	}
	return out, nil
}
