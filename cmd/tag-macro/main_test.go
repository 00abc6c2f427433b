package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/cfntheory/cfn/mediastore"
	"github.com/theory-cloud/cfntheory/cfn/ram"
	"github.com/theory-cloud/cfntheory/pkg/tags"
)

func TestBuildRegistry_IncludesBindings(t *testing.T) {
	t.Setenv(envSpecFile, "")
	reg, err := buildRegistry()
	require.NoError(t, err)

	for _, name := range []string{mediastore.ContainerType, ram.ResourceShareType} {
		rt, ok := reg.Lookup(name)
		require.True(t, ok, name)
		require.Equal(t, tags.StyleList, rt.TagStyle)
	}
}

func TestBuildRegistry_LoadsSpecification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"ResourceSpecificationVersion": "1.0.0",
		"PropertyTypes": {},
		"ResourceTypes": {
			"AWS::SQS::Queue": {
				"Attributes": {"Arn": {"PrimitiveType": "String"}},
				"Properties": {
					"QueueName": {"PrimitiveType": "String", "Required": false, "UpdateType": "Immutable"},
					"Tags": {"Type": "List", "ItemType": "Tag", "Required": false, "UpdateType": "Mutable"}
				}
			}
		}
	}`), 0o600))
	t.Setenv(envSpecFile, path)

	reg, err := buildRegistry()
	require.NoError(t, err)
	rt, ok := reg.Lookup("AWS::SQS::Queue")
	require.True(t, ok)
	require.Equal(t, tags.StyleList, rt.TagStyle)
	_, ok = reg.Lookup(mediastore.ContainerType)
	require.True(t, ok)

	t.Setenv(envSpecFile, filepath.Join(t.TempDir(), "missing.json"))
	_, err = buildRegistry()
	require.Error(t, err)
}
