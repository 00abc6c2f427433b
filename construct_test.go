package cfntheory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/cfntheory"
)

func TestConstructTree_PathsAndScopes(t *testing.T) {
	t.Parallel()

	_, app, stack := newStack(t, "Media")
	group, err := cfntheory.NewConstruct(stack, "Logs")
	require.NoError(t, err)
	res := newContainer(t, group, "Resource", map[string]any{"ContainerName": "logs"})

	n := res.Node()
	require.Equal(t, "Media/Logs/Resource", n.Path())
	require.Equal(t, "Resource", n.ID())
	require.Same(t, app.Node(), n.Root())
	require.Same(t, app, n.App())
	require.Same(t, stack, n.Stack())
	require.Same(t, group.Node(), n.Scope())
	require.Same(t, res, n.Host())
	require.Len(t, n.Scopes(), 4)
	require.Empty(t, app.Node().Path())

	child, ok := stack.Node().FindChild("Logs")
	require.True(t, ok)
	require.Same(t, group.Node(), child)
	_, ok = stack.Node().FindChild("Missing")
	require.False(t, ok)

	require.Equal(t, []*cfntheory.Stack{stack}, app.Stacks())
	require.Equal(t, "Logs6819BB44", res.LogicalID())
}

func TestConstructTree_ChildrenKeepCreationOrder(t *testing.T) {
	t.Parallel()

	_, _, stack := newStack(t, "Media")
	for _, id := range []string{"Zeta", "Alpha", "Mid"} {
		newContainer(t, stack, id, map[string]any{"ContainerName": id})
	}

	var ids []string
	for _, c := range stack.Node().Children() {
		ids = append(ids, c.ID())
	}
	require.Equal(t, []string{"Zeta", "Alpha", "Mid"}, ids)
	require.Len(t, stack.Resources(), 3)
}

func TestConstructIDs_AreValidated(t *testing.T) {
	t.Parallel()

	_, app, stack := newStack(t, "Media")

	_, err := cfntheory.NewConstruct(stack, "")
	require.Equal(t, cfntheory.ErrorCodeInvalidID, cfntheory.ErrorCode(err))

	_, err = cfntheory.NewConstruct(stack, "a/b")
	require.Equal(t, cfntheory.ErrorCodeInvalidID, cfntheory.ErrorCode(err))

	_, err = cfntheory.NewConstruct(stack, "Logs")
	require.NoError(t, err)
	_, err = cfntheory.NewConstruct(stack, "Logs")
	require.Equal(t, cfntheory.ErrorCodeDuplicateID, cfntheory.ErrorCode(err))

	_, err = cfntheory.NewStack(app, "Media", nil)
	require.Equal(t, cfntheory.ErrorCodeDuplicateID, cfntheory.ErrorCode(err))
	require.Len(t, app.Stacks(), 1)

	_, err = cfntheory.NewStack(app, "Logs", &cfntheory.StackProps{StackName: "media_logs"})
	require.Equal(t, cfntheory.ErrorCodeInvalidID, cfntheory.ErrorCode(err))
	_, err = cfntheory.NewStack(app, "9lives", nil)
	require.Equal(t, cfntheory.ErrorCodeInvalidID, cfntheory.ErrorCode(err))
	require.Len(t, app.Stacks(), 1)
}

func TestScopes_AreEnforced(t *testing.T) {
	t.Parallel()

	_, app, stack := newStack(t, "Media")

	_, err := cfntheory.NewStack(stack, "Inner", nil)
	require.Equal(t, cfntheory.ErrorCodeInvalidScope, cfntheory.ErrorCode(err))

	_, err = cfntheory.NewStack(nil, "Orphan", nil)
	require.Equal(t, cfntheory.ErrorCodeInvalidScope, cfntheory.ErrorCode(err))

	_, err = cfntheory.NewCfnResource(app, "Logs", &cfntheory.CfnResourceProps{Type: containerType, Properties: map[string]any{"ContainerName": "x"}})
	require.Equal(t, cfntheory.ErrorCodeInvalidScope, cfntheory.ErrorCode(err))

	_, err = cfntheory.NewCfnOutput(app, "Out", &cfntheory.CfnOutputProps{Value: "x"})
	require.Equal(t, cfntheory.ErrorCodeInvalidScope, cfntheory.ErrorCode(err))

	_, err = cfntheory.NewCfnParameter(app, "Param", nil)
	require.Equal(t, cfntheory.ErrorCodeInvalidScope, cfntheory.ErrorCode(err))

	require.Len(t, app.Node().Children(), 1)
	require.Empty(t, stack.Node().Children())
}

func TestNode_Metadata(t *testing.T) {
	t.Parallel()

	_, _, stack := newStack(t, "Media")
	stack.Node().AddMetadata("owner", "media-team")

	md := stack.Node().Metadata()
	v, ok := md.Get("owner")
	require.True(t, ok)
	require.Equal(t, "media-team", v)

	md.Set("owner", "changed")
	v, _ = stack.Node().Metadata().Get("owner")
	require.Equal(t, "media-team", v)
}

func TestStackProps_DefaultsAndOverrides(t *testing.T) {
	t.Parallel()

	_, app, stack := newStack(t, "Media")
	require.Equal(t, "Media", stack.StackName())
	require.Equal(t, "test stack", stack.Description())
	require.Same(t, app, stack.App())

	named, err := cfntheory.NewStack(app, "Other", &cfntheory.StackProps{StackName: "media-other"})
	require.NoError(t, err)
	require.Equal(t, "media-other", named.StackName())
	named.SetDescription("d")
	require.Equal(t, "d", named.Description())
}

func TestPointerHelpers(t *testing.T) {
	t.Parallel()

	require.Equal(t, "logs", *cfntheory.String("logs"))
	require.False(t, *cfntheory.Bool(false))
	require.Equal(t, 3000, *cfntheory.Int(3000))
	require.Equal(t, int64(1<<40), *cfntheory.Int64(1<<40))
	require.InDelta(t, 1.5, *cfntheory.Float64(1.5), 0)
}
