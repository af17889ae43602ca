// Package filterquery compiles the JSON condition trees saved on filter
// presets and cleanup rules into SQL WHERE fragments. Every leaf field name
// must appear in the caller's allow-list; anything else is rejected at the
// boundary rather than silently passed through to the database.
package filterquery

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
)

// FieldKind constrains which operators a field accepts and how its value is
// bound, so a text field can't be compared with "gt" and a numeric field
// can't be compared with "contains".
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
	KindBool
)

// Field describes one allow-listed leaf: the SQL column it maps to and the
// kind of comparisons it supports.
type Field struct {
	Column string
	Kind   FieldKind
}

// FieldMap is the allow-list a Compile call is checked against.
type FieldMap map[string]Field

var textOps = map[string]string{"eq": "=", "neq": "!=", "contains": "LIKE"}
var numberOps = map[string]string{"eq": "=", "neq": "!=", "gt": ">", "gte": ">=", "lt": "<", "lte": "<="}
var boolOps = map[string]string{"eq": "="}

// node mirrors the JSON condition-tree shape: either a leaf (Field/Op/Value)
// or a boolean combinator (And/Or) over child nodes. Exactly one of those
// shapes should be populated; a node with both is treated as a combinator.
type node struct {
	Field string          `json:"field"`
	Op    string          `json:"op"`
	Value json.RawMessage `json:"value"`
	And   []node          `json:"and"`
	Or    []node          `json:"or"`
}

// Compile parses a JSON-encoded condition tree and renders it as a SQL
// WHERE clause body (without the leading "WHERE") plus its bound args.
// Every leaf field must resolve against allowed; an unknown field name, an
// operator unsupported for the field's kind, or malformed JSON all return
// an apperr.ContentInvalid error suitable for a 400 response.
func Compile(tree string, allowed FieldMap) (string, []any, error) {
	tree = strings.TrimSpace(tree)
	if tree == "" {
		return "1=1", nil, nil
	}
	var root node
	if err := json.Unmarshal([]byte(tree), &root); err != nil {
		return "", nil, apperr.New(apperr.ContentInvalid, fmt.Errorf("filterquery: invalid condition tree: %w", err))
	}
	return compileNode(root, allowed)
}

func compileNode(n node, allowed FieldMap) (string, []any, error) {
	switch {
	case len(n.And) > 0:
		return compileGroup(n.And, "AND", allowed)
	case len(n.Or) > 0:
		return compileGroup(n.Or, "OR", allowed)
	default:
		return compileLeaf(n, allowed)
	}
}

func compileGroup(children []node, joiner string, allowed FieldMap) (string, []any, error) {
	clauses := make([]string, 0, len(children))
	var args []any
	for _, child := range children {
		clause, childArgs, err := compileNode(child, allowed)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, "("+clause+")")
		args = append(args, childArgs...)
	}
	return strings.Join(clauses, " "+joiner+" "), args, nil
}

func compileLeaf(n node, allowed FieldMap) (string, []any, error) {
	field, ok := allowed[n.Field]
	if !ok {
		return "", nil, apperr.Newf(apperr.ContentInvalid, "filterquery: field %q is not allowed", n.Field)
	}

	ops := opsForKind(field.Kind)
	sqlOp, ok := ops[n.Op]
	if !ok {
		return "", nil, apperr.Newf(apperr.ContentInvalid, "filterquery: operator %q is not valid for field %q", n.Op, n.Field)
	}

	value, err := decodeValue(n.Value, field.Kind)
	if err != nil {
		return "", nil, apperr.New(apperr.ContentInvalid, err)
	}
	if n.Op == "contains" {
		value = "%" + fmt.Sprint(value) + "%"
	}
	return fmt.Sprintf("%s %s ?", field.Column, sqlOp), []any{value}, nil
}

func opsForKind(kind FieldKind) map[string]string {
	switch kind {
	case KindNumber:
		return numberOps
	case KindBool:
		return boolOps
	default:
		return textOps
	}
}

func decodeValue(raw json.RawMessage, kind FieldKind) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("filterquery: missing value")
	}
	switch kind {
	case KindNumber:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("filterquery: expected numeric value: %w", err)
		}
		return v, nil
	case KindBool:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("filterquery: expected boolean value: %w", err)
		}
		return v, nil
	default:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("filterquery: expected string value: %w", err)
		}
		return v, nil
	}
}

// WantedItemFields is the allow-list for wanted_items condition trees, used
// by both saved filter presets and the cleanup rule engine.
var WantedItemFields = FieldMap{
	"status":          {Column: "status", Kind: KindText},
	"target_language": {Column: "target_language", Kind: KindText},
	"subtitle_type":   {Column: "subtitle_type", Kind: KindText},
	"media_title":     {Column: "media_title", Kind: KindText},
	"file_path":       {Column: "file_path", Kind: KindText},
	"standalone":      {Column: "standalone", Kind: KindBool},
	"attempt_count":   {Column: "attempt_count", Kind: KindNumber},
}
