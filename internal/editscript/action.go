package editscript

import (
	"encoding/json"
	"strings"

	"github.com/rohankatakam/ptmine/internal/errors"
)

// Kind is the edit operation of an action
type Kind string

const (
	KindInsert Kind = "insert"
	KindDelete Kind = "delete"
	KindUpdate Kind = "update"
	KindMove   Kind = "move"
)

// Node is an AST node reference as printed by the diff oracle,
// e.g. "SimpleName: foo [120,123]".
type Node struct {
	Label   string
	Span    Span
	HasSpan bool
}

// ParseNode parses a node label. A label without a position group yields
// a node with HasSpan false.
func ParseNode(label string) Node {
	n := Node{Label: label}
	if span, err := ParseSpan(label); err == nil {
		n.Span = span
		n.HasSpan = true
	}
	return n
}

// Type returns the node type, the label prefix before ':' or the position group
func (n Node) Type() string {
	label := n.Label
	if i := strings.IndexAny(label, ":["); i >= 0 {
		label = label[:i]
	}
	return strings.TrimSpace(label)
}

// HasPrefix reports whether the node label starts with the given type name
func (n Node) HasPrefix(prefix string) bool {
	return strings.HasPrefix(n.Label, prefix)
}

// Action is one step of an edit script
type Action struct {
	Kind   Kind
	Detail string
	Node   Node
	Parent *Node
}

// TargetSpan returns the parent's span when the parent carries one,
// otherwise the node's own span.
func (a Action) TargetSpan() (Span, bool) {
	if a.Parent != nil && a.Parent.HasSpan {
		return a.Parent.Span, true
	}
	return a.Node.Span, a.Node.HasSpan
}

// IsAdditive reports whether the action only inserts or deletes
func (a Action) IsAdditive() bool {
	return a.Kind == KindInsert || a.Kind == KindDelete
}

// Script is an ordered edit script
type Script []Action

// Empty reports whether the script has no actions
func (s Script) Empty() bool {
	return len(s) == 0
}

// Every reports whether pred holds for all actions. False for an empty script.
func (s Script) Every(pred func(Action) bool) bool {
	if len(s) == 0 {
		return false
	}
	for _, a := range s {
		if !pred(a) {
			return false
		}
	}
	return true
}

type rawAction struct {
	Action string `json:"action"`
	Tree   string `json:"tree"`
	Parent string `json:"parent,omitempty"`
}

type rawScript struct {
	Actions []rawAction `json:"actions"`
}

// ParseScript decodes the diff oracle's JSON output
func ParseScript(data []byte) (Script, error) {
	var raw rawScript
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.OracleErrorf(err, "decode edit script")
	}

	script := make(Script, 0, len(raw.Actions))
	for _, ra := range raw.Actions {
		script = append(script, newAction(ra))
	}
	return script, nil
}

func newAction(ra rawAction) Action {
	kind, detail, _ := strings.Cut(ra.Action, "-")
	a := Action{
		Kind:   Kind(kind),
		Detail: detail,
		Node:   ParseNode(ra.Tree),
	}
	if ra.Parent != "" {
		p := ParseNode(ra.Parent)
		a.Parent = &p
	}
	return a
}

// MarshalJSON writes the action back in the oracle's wire shape
func (a Action) MarshalJSON() ([]byte, error) {
	ra := rawAction{Action: string(a.Kind), Tree: a.Node.Label}
	if a.Detail != "" {
		ra.Action += "-" + a.Detail
	}
	if a.Parent != nil {
		ra.Parent = a.Parent.Label
	}
	return json.Marshal(ra)
}

// UnmarshalJSON reads an action in the oracle's wire shape
func (a *Action) UnmarshalJSON(data []byte) error {
	var ra rawAction
	if err := json.Unmarshal(data, &ra); err != nil {
		return err
	}
	*a = newAction(ra)
	return nil
}

// Encode serializes the script in the oracle's wire shape, for caching
func (s Script) Encode() ([]byte, error) {
	return json.Marshal(struct {
		Actions Script `json:"actions"`
	}{Actions: s})
}
