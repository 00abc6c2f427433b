package cdkbridge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/cfntheory/pkg/propbag"
	"github.com/theory-cloud/cfntheory/pkg/template"
)

func TestBridgeEntryPointsCompile(t *testing.T) {
	t.Helper()

	_ = Import
	_ = ImportTemplate
}

func TestOverridesFollowResourceAttributeOrder(t *testing.T) {
	t.Parallel()

	extra := propbag.New()
	extra.Set("UpdatePolicy", propbag.New())
	r := &template.Resource{
		Type:                "AWS::MediaStore::Container",
		Condition:           "IsProd",
		DependsOn:           []string{"Share", "Group"},
		DeletionPolicy:      "Retain",
		UpdateReplacePolicy: "Snapshot",
		Extra:               extra,
	}

	got := overrides(r)
	paths := make([]string, len(got))
	for i, o := range got {
		paths[i] = o.path
	}
	require.Equal(t, []string{"Condition", "DependsOn", "DeletionPolicy", "UpdateReplacePolicy", "UpdatePolicy"}, paths)
	require.Equal(t, []any{"Share", "Group"}, got[1].value)
	require.Equal(t, map[string]any{}, got[4].value)
}

func TestOverridesEmptyForBareResource(t *testing.T) {
	t.Parallel()

	require.Empty(t, overrides(&template.Resource{Type: "AWS::RAM::Permission"}))
	require.Nil(t, propertiesOf(&template.Resource{Type: "AWS::RAM::Permission"}))
}

func TestPropertiesOfFlattensNestedBags(t *testing.T) {
	t.Parallel()

	rule := propbag.New()
	rule.Set("MaxAgeSeconds", 30)
	props := propbag.New()
	props.Set("ContainerName", "logs")
	props.Set("CorsPolicy", []any{rule})

	got := propertiesOf(&template.Resource{Properties: props})
	require.NotNil(t, got)
	require.Equal(t, map[string]any{
		"ContainerName": "logs",
		"CorsPolicy":    []any{map[string]any{"MaxAgeSeconds": 30}},
	}, *got)
}

func TestPlainConvertsIntrinsics(t *testing.T) {
	t.Parallel()

	require.Nil(t, plain(nil))
	require.Equal(t, "x", plain("x"))
	require.Equal(t, map[string]any{"Ref": "Name"}, plain(template.Ref("Name")))
}

func TestAllowedValuesStringifies(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"a", "3", "true"}, allowedValues([]any{"a", 3, true}))
}
