package anb

import (
	"encoding/json"
	"fmt"
)

// nodeJSON is the interchange shape of a node in metadata.json. Byte
// slices inside bodies travel as base64.
type nodeJSON struct {
	Type        uint32          `json:"type"`
	Name        string          `json:"name,omitempty"`
	NumChildren int             `json:"num_children"`
	Body        json.RawMessage `json:"body"`
	Children    []*Node         `json:"children"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	if n.Body == nil {
		return nil, fmt.Errorf("anb: %s node has no body", n.Kind)
	}
	body, err := json.Marshal(n.Body)
	if err != nil {
		return nil, err
	}
	children := n.Children
	if children == nil {
		children = []*Node{}
	}
	return json.Marshal(nodeJSON{
		Type:        uint32(n.Kind),
		Name:        n.Kind.String(),
		NumChildren: len(n.Children),
		Body:        body,
		Children:    children,
	})
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	kind, err := LookupKind(raw.Type, 0)
	if err != nil {
		return err
	}
	if raw.NumChildren != len(raw.Children) {
		return fmt.Errorf("%w: %s lists num_children %d but has %d children",
			ErrFormat, kind, raw.NumChildren, len(raw.Children))
	}
	body := newBody(kind)
	if len(raw.Body) > 0 && string(raw.Body) != "null" {
		if err := json.Unmarshal(raw.Body, body); err != nil {
			return fmt.Errorf("anb: %s body: %w", kind, err)
		}
	}
	n.Kind = kind
	n.Body = body
	n.Children = raw.Children
	return nil
}
