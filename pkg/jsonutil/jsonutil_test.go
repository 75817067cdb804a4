package jsonutil_test

import (
	"encoding/json"
	"testing"

	"github.com/hardcoverapp/hardcover-explorer/pkg/jsonutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshal_keepsMemberOrder(t *testing.T) {
	v, err := jsonutil.Unmarshal([]byte(`{"zeta": 1, "alpha": {"b": true, "a": null}, "mid": ["x", 2.5]}`))
	require.NoError(t, err)

	obj, ok := v.(jsonutil.Object)
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, obj.Keys())

	zeta, _ := obj.Get("zeta")
	assert.Equal(t, json.Number("1"), zeta)

	alpha, _ := obj.Get("alpha")
	assert.Equal(t, jsonutil.Object{{Key: "b", Value: true}, {Key: "a", Value: nil}}, alpha)

	mid, _ := obj.Get("mid")
	assert.Equal(t, []any{"x", json.Number("2.5")}, mid)
}

func TestUnmarshal_errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"truncated object", `{"a": 1`},
		{"truncated array", `[1, 2`},
		{"trailing value", `{"a": 1} {"b": 2}`},
		{"empty", ``},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := jsonutil.Unmarshal([]byte(tc.input))
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalObject_rejectsNonObject(t *testing.T) {
	_, err := jsonutil.UnmarshalObject([]byte(`[1,2]`))
	assert.Error(t, err)

	obj, err := jsonutil.UnmarshalObject([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, obj)
}

func TestObject_SetAndDelete(t *testing.T) {
	orig := jsonutil.Object{{Key: "limit", Value: 10}, {Key: "offset", Value: 0}}

	updated := orig.Set("limit", 20)
	assert.Equal(t, jsonutil.Object{{Key: "limit", Value: 20}, {Key: "offset", Value: 0}}, updated)
	assert.Equal(t, 10, orig[0].Value, "Set must not modify the receiver")

	appended := orig.Set("where", "x")
	assert.Equal(t, []string{"limit", "offset", "where"}, appended.Keys())

	deleted := appended.Delete("offset")
	assert.Equal(t, []string{"limit", "where"}, deleted.Keys())
	assert.Len(t, appended, 3)
}

func TestObject_MarshalJSON(t *testing.T) {
	obj := jsonutil.Object{
		{Key: "b", Value: json.Number("2")},
		{Key: "a", Value: jsonutil.Object{{Key: "y", Value: "z"}}},
		{Key: "c", Value: []any{true, nil}},
	}
	out, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"b":2,"a":{"y":"z"},"c":[true,null]}`, string(out))
}
