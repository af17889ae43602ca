package filterquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
)

func TestCompileEmptyTreeMatchesEverything(t *testing.T) {
	where, args, err := Compile("", WantedItemFields)
	require.NoError(t, err)
	assert.Equal(t, "1=1", where)
	assert.Empty(t, args)
}

func TestCompileLeaf(t *testing.T) {
	where, args, err := Compile(`{"field":"status","op":"eq","value":"failed"}`, WantedItemFields)
	require.NoError(t, err)
	assert.Equal(t, "status = ?", where)
	assert.Equal(t, []any{"failed"}, args)
}

func TestCompileContainsWrapsValueInWildcards(t *testing.T) {
	where, args, err := Compile(`{"field":"media_title","op":"contains","value":"matrix"}`, WantedItemFields)
	require.NoError(t, err)
	assert.Equal(t, "media_title LIKE ?", where)
	assert.Equal(t, []any{"%matrix%"}, args)
}

func TestCompileNumericComparison(t *testing.T) {
	where, args, err := Compile(`{"field":"attempt_count","op":"gte","value":3}`, WantedItemFields)
	require.NoError(t, err)
	assert.Equal(t, "attempt_count >= ?", where)
	assert.Equal(t, []any{float64(3)}, args)
}

func TestCompileNestedAndOr(t *testing.T) {
	tree := `{"and":[
		{"field":"status","op":"eq","value":"failed"},
		{"or":[
			{"field":"subtitle_type","op":"eq","value":"full"},
			{"field":"subtitle_type","op":"eq","value":"forced"}
		]}
	]}`
	where, args, err := Compile(tree, WantedItemFields)
	require.NoError(t, err)
	assert.Equal(t, "(status = ?) AND ((subtitle_type = ?) OR (subtitle_type = ?))", where)
	assert.Equal(t, []any{"failed", "full", "forced"}, args)
}

func TestCompileRejectsFieldOutsideAllowList(t *testing.T) {
	_, _, err := Compile(`{"field":"last_error","op":"eq","value":"x"}`, WantedItemFields)
	require.Error(t, err)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.ContentInvalid, ae.Kind)
}

func TestCompileRejectsOperatorForFieldKind(t *testing.T) {
	_, _, err := Compile(`{"field":"attempt_count","op":"contains","value":"3"}`, WantedItemFields)
	require.Error(t, err)
}

func TestCompileRejectsMalformedJSON(t *testing.T) {
	_, _, err := Compile(`{not json`, WantedItemFields)
	require.Error(t, err)
}
