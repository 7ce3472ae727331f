package engine

import (
	"encoding/json"
	"fmt"
)

// ActionKind enumerates the closed set of player decisions. Raise is the
// only kind that carries an amount.
type ActionKind int

const (
	Fold ActionKind = iota + 1
	Check
	Call
	Raise
	AllIn
)

var actionNames = map[ActionKind]string{
	Fold:  "fold",
	Check: "check",
	Call:  "call",
	Raise: "raise",
	AllIn: "all-in",
}

func (k ActionKind) String() string {
	if s, ok := actionNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// ParseActionKind maps a wire string back to its kind.
func ParseActionKind(s string) (ActionKind, error) {
	for k, name := range actionNames {
		if s == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

func (k ActionKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ActionKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseActionKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Action is one player decision. For Raise, Amount is the total resulting
// bet for the street, not the increment on top of the current bet.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Amount int        `json:"amount,omitempty"`
}

func FoldAction() Action  { return Action{Kind: Fold} }
func CheckAction() Action { return Action{Kind: Check} }
func CallAction() Action  { return Action{Kind: Call} }
func AllInAction() Action { return Action{Kind: AllIn} }

// RaiseTo builds a raise to the given total street bet.
func RaiseTo(amount int) Action { return Action{Kind: Raise, Amount: amount} }
