package cfntheory_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/theory-cloud/cfntheory"
	"github.com/theory-cloud/cfntheory/pkg/logger"
	"github.com/theory-cloud/cfntheory/pkg/observability"
	"github.com/theory-cloud/cfntheory/pkg/template"
	"github.com/theory-cloud/cfntheory/testkit"
)

func TestStackTemplate_MinimalResource(t *testing.T) {
	t.Parallel()

	_, _, stack := newStack(t, "Media")
	newContainer(t, stack, "Logs", map[string]any{"container_name": "logs"})

	tmpl := testkit.FromStack(t, stack)
	require.JSONEq(t, `{
		"AWSTemplateFormatVersion": "2010-09-09",
		"Description": "test stack",
		"Resources": {
			"Logs": {
				"Type": "Test::Media::Container",
				"Properties": {"ContainerName": "logs"},
				"Metadata": {"aws:cdk:path": "Media/Logs"}
			}
		}
	}`, tmpl.JSON())
	require.Equal(t, []string{"ContainerName"}, tmpl.PropertyKeys("Logs"))
}

func TestStackTemplate_PropertiesFollowDeclarationOrder(t *testing.T) {
	t.Parallel()

	_, _, stack := newStack(t, "Media")
	res := newContainer(t, stack, "Logs", map[string]any{
		"Tags":          []any{map[string]any{"Key": "team", "Value": "video"}},
		"ContainerName": "logs",
	})
	require.NoError(t, res.SetProperty("access_logging_enabled", true))

	tmpl := testkit.FromStack(t, stack)
	require.Equal(t, []string{"ContainerName", "AccessLoggingEnabled", "Tags"}, tmpl.PropertyKeys("Logs"))
	require.True(t, tmpl.Resource("Logs").Get("Properties.AccessLoggingEnabled").Bool())
	require.JSONEq(t, `[{"Key":"team","Value":"video"}]`, tmpl.Resource("Logs").Get("Properties.Tags").Raw)
}

func TestStackTemplate_ResolvesTokens(t *testing.T) {
	t.Parallel()

	_, _, stack := newStack(t, "Media")
	logs := newContainer(t, stack, "Logs", map[string]any{"ContainerName": "logs"})

	newLink(t, stack, "ByRef", logs.Ref())
	newLink(t, stack, "ByAtt", logs.MustGetAtt("Endpoint"))
	newLink(t, stack, "ByRegion", cfntheory.Region)
	newLink(t, stack, "Joined", "arn:"+cfntheory.Partition.String()+":mediastore:::"+logs.Ref().String())
	newLink(t, stack, "Literal", "plain ${Token[unknown.1]}")

	tmpl := testkit.FromStack(t, stack)
	source := func(id string) string {
		return tmpl.Resource(id).Get("Properties.Source").Raw
	}
	require.JSONEq(t, `{"Ref":"Logs"}`, source("ByRef"))
	require.JSONEq(t, `{"Fn::GetAtt":["Logs","Endpoint"]}`, source("ByAtt"))
	require.JSONEq(t, `{"Ref":"AWS::Region"}`, source("ByRegion"))
	require.JSONEq(t, `{"Fn::Join":["",["arn:",{"Ref":"AWS::Partition"},":mediastore:::",{"Ref":"Logs"}]]}`, source("Joined"))
	require.JSONEq(t, `"plain ${Token[unknown.1]}"`, source("Literal"))
}

func TestStackTemplate_ParametersAndOutputs(t *testing.T) {
	t.Parallel()

	_, _, stack := newStack(t, "Media")
	name, err := cfntheory.NewCfnParameter(stack, "ContainerName", &cfntheory.CfnParameterProps{
		Description:   "container name",
		Default:       "logs",
		AllowedValues: []any{"logs", "media"},
	})
	require.NoError(t, err)
	require.Equal(t, "String", name.Type())

	logs := newContainer(t, stack, "Logs", map[string]any{"ContainerName": name.ValueAsString()})
	_, err = cfntheory.NewCfnOutput(stack, "Endpoint", &cfntheory.CfnOutputProps{
		Value:       logs.MustGetAtt("Endpoint"),
		Description: "container endpoint",
		ExportName:  cfntheory.StackName.String() + "-endpoint",
	})
	require.NoError(t, err)

	_, err = cfntheory.NewCfnOutput(stack, "Missing", nil)
	var missing *cfntheory.MissingRequiredFieldError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "Value", missing.Path)

	tmpl := testkit.FromStack(t, stack)
	require.JSONEq(t, `{"Type":"String","Description":"container name","Default":"logs","AllowedValues":["logs","media"]}`,
		tmpl.Get("Parameters.ContainerName").Raw)
	require.JSONEq(t, `{"Ref":"ContainerName"}`, tmpl.Resource("Logs").Get("Properties.ContainerName").Raw)
	tmpl.HasOutput("Endpoint", map[string]any{"Fn::GetAtt": []any{"Logs", "Endpoint"}})
	require.JSONEq(t, `{"Fn::Join":["",[{"Ref":"AWS::StackName"},"-endpoint"]]}`, tmpl.Get("Outputs.Endpoint.Export.Name").Raw)
	require.Equal(t, "container endpoint", tmpl.Get("Outputs.Endpoint.Description").String())

	// A Ref to a parameter is not a resource dependency.
	require.False(t, tmpl.Resource("Logs").Get("DependsOn").Exists())
}

func TestStackTemplate_RejectsCrossStackReferences(t *testing.T) {
	t.Parallel()

	_, app, media := newStack(t, "Media")
	logs := newContainer(t, media, "Logs", map[string]any{"ContainerName": "logs"})

	other, err := cfntheory.NewStack(app, "Other", nil)
	require.NoError(t, err)
	newLink(t, other, "Link", logs.Ref())

	_, err = other.Template()
	require.Equal(t, cfntheory.ErrorCodeCrossStackReference, cfntheory.ErrorCode(err))

	_, err = app.Synth()
	require.Equal(t, cfntheory.ErrorCodeCrossStackReference, cfntheory.ErrorCode(err))
}

func TestStackTemplate_Dependencies(t *testing.T) {
	t.Parallel()

	_, _, stack := newStack(t, "Media")
	a := newLink(t, stack, "A", "a")
	b := newLink(t, stack, "B", a.Ref())
	c := newLink(t, stack, "C", "c")
	require.NoError(t, c.AddDependency(a, b))

	tmpl := testkit.FromStack(t, stack)
	require.JSONEq(t, `["A","B"]`, tmpl.Resource("C").Get("DependsOn").Raw)
	require.False(t, tmpl.Resource("B").Get("DependsOn").Exists())

	// Closing the loop through a property reference is a cycle.
	require.NoError(t, a.SetProperty("Target", c.Ref()))
	_, err := stack.Template()
	require.Equal(t, cfntheory.ErrorCodeDependencyCycle, cfntheory.ErrorCode(err))

	require.NoError(t, a.SetProperty("Target", nil))
	_, err = stack.Template()
	require.NoError(t, err)
}

func TestStackTemplate_InheritsScopeTags(t *testing.T) {
	t.Parallel()

	env := testkit.New()
	app := env.App(cfntheory.WithRegistry(testRegistry()))
	cfntheory.Tags(app).Add("Owner", "media").Add("Env", "dev")
	stack, err := cfntheory.NewStack(app, "Media", &cfntheory.StackProps{Tags: map[string]string{"Env": "prod"}})
	require.NoError(t, err)

	newContainer(t, stack, "Bare", map[string]any{"ContainerName": "bare"})
	newContainer(t, stack, "Own", map[string]any{
		"ContainerName": "own",
		"Tags":          []any{map[string]any{"Key": "Env", "Value": "test"}},
	})
	_, err = cfntheory.NewCfnResource(stack, "Catalog", &cfntheory.CfnResourceProps{
		Type:       groupType,
		Properties: map[string]any{"Name": "catalog"},
	})
	require.NoError(t, err)
	newLink(t, stack, "Link", "x")

	tmpl := testkit.FromStack(t, stack)
	require.JSONEq(t, `[{"Key":"Owner","Value":"media"},{"Key":"Env","Value":"prod"}]`, tmpl.Resource("Bare").Get("Properties.Tags").Raw)
	require.JSONEq(t, `[{"Key":"Owner","Value":"media"},{"Key":"Env","Value":"test"}]`, tmpl.Resource("Own").Get("Properties.Tags").Raw)
	require.JSONEq(t, `{"Env":"prod","Owner":"media"}`, tmpl.Resource("Catalog").Get("Properties.Tags").Raw)
	require.False(t, tmpl.Resource("Link").Get("Properties.Tags").Exists())

	cfntheory.Tags(stack).Remove("Env")
	tmpl = testkit.FromStack(t, stack)
	require.JSONEq(t, `{"Env":"dev","Owner":"media"}`, tmpl.Resource("Catalog").Get("Properties.Tags").Raw)
	require.Equal(t, 2, len(cfntheory.Tags(app).List()))
}

func TestStackTemplate_ResourceAttributes(t *testing.T) {
	t.Parallel()

	_, _, stack := newStack(t, "Media")
	retained := newContainer(t, stack, "Retained", map[string]any{"ContainerName": "a"})
	retained.ApplyRemovalPolicy(cfntheory.RemovalPolicyRetainOnUpdateOrDelete)
	retained.SetCondition("IsProd")
	retained.AddMetadata("cfn_nag", map[string]any{"rules_to_suppress": []any{map[string]any{"id": "W1"}}})

	snap := newContainer(t, stack, "Snap", map[string]any{"ContainerName": "b"})
	snap.ApplyRemovalPolicy(cfntheory.RemovalPolicySnapshot)

	tmpl := testkit.FromStack(t, stack)
	r := tmpl.Resource("Retained")
	require.Equal(t, "RetainExceptOnCreate", r.Get("DeletionPolicy").String())
	require.Equal(t, "Retain", r.Get("UpdateReplacePolicy").String())
	require.Equal(t, "IsProd", r.Get("Condition").String())
	require.JSONEq(t, `{"aws:cdk:path":"Media/Retained","cfn_nag":{"rules_to_suppress":[{"id":"W1"}]}}`, r.Get("Metadata").Raw)

	var metaKeys []string
	r.Get("Metadata").ForEach(func(k, _ gjson.Result) bool {
		metaKeys = append(metaKeys, k.String())
		return true
	})
	require.Equal(t, []string{"aws:cdk:path", "cfn_nag"}, metaKeys)

	s := tmpl.Resource("Snap")
	require.Equal(t, "Snapshot", s.Get("DeletionPolicy").String())
	require.Equal(t, "Snapshot", s.Get("UpdateReplacePolicy").String())
}

func TestStackTemplate_NestedScopesGetHashedIDs(t *testing.T) {
	t.Parallel()

	_, _, stack := newStack(t, "Media")
	group, err := cfntheory.NewConstruct(stack, "Logs")
	require.NoError(t, err)
	res := newContainer(t, group, "Resource", map[string]any{"ContainerName": "logs"})
	require.Equal(t, "Logs6819BB44", res.LogicalID())

	tmpl := testkit.FromStack(t, stack)
	require.Equal(t, "Media/Logs/Resource", tmpl.Resource("Logs6819BB44").Get(`Metadata.aws:cdk:path`).String())
	tmpl.ResourceCountIs(containerType, 1)
	tmpl.HasResourceProperties(containerType, map[string]any{"ContainerName": "logs"})
}

func TestStackTemplate_DuplicateLogicalIDs(t *testing.T) {
	t.Parallel()

	_, _, stack := newStack(t, "Media")
	a := newContainer(t, stack, "A", map[string]any{"ContainerName": "a"})
	b := newLink(t, stack, "B", "b")
	require.NoError(t, a.OverrideLogicalID("Shared"))
	require.NoError(t, b.OverrideLogicalID("Shared"))

	_, err := stack.Template()
	require.Equal(t, cfntheory.ErrorCodeSynthesisFailed, cfntheory.ErrorCode(err))
}

func TestApp_SynthAssembly(t *testing.T) {
	t.Parallel()

	env, app, stack := newStack(t, "Media")
	logs := newContainer(t, stack, "Logs", map[string]any{"ContainerName": "logs"})

	asm := env.Synth(t, app)
	require.Equal(t, "test-run-1", asm.RunID)
	require.Equal(t, time.Unix(0, 0).UTC(), asm.CreatedAt)
	require.Equal(t, template.FormatJSON, asm.Format)
	require.Empty(t, asm.Directory)

	art, ok := asm.Stack("Media")
	require.True(t, ok)
	require.Equal(t, "Media.template.json", art.TemplateFile)
	require.Equal(t, "logs", testkit.FromJSON(t, art.Body).Get("Resources.Logs.Properties.ContainerName").String())
	_, ok = asm.Stack("Missing")
	require.False(t, ok)

	require.NoError(t, logs.SetProperty("AccessLoggingEnabled", true))
	env.Clock.Advance(time.Minute)
	again := env.Synth(t, app)
	require.Equal(t, "test-run-2", again.RunID)
	require.Equal(t, time.Unix(60, 0).UTC(), again.CreatedAt)
	art, _ = again.Stack("Media")
	require.True(t, testkit.FromJSON(t, art.Body).Get("Resources.Logs.Properties.AccessLoggingEnabled").Bool())
}

func TestAssembly_Write(t *testing.T) {
	t.Parallel()

	env, app, stack := newStack(t, "Media")
	newContainer(t, stack, "Logs", map[string]any{"ContainerName": "logs"})
	asm := env.Synth(t, app)

	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, asm.Write(dir))
	require.Equal(t, dir, asm.Directory)

	body, err := os.ReadFile(filepath.Join(dir, "Media.template.json"))
	require.NoError(t, err)
	art, _ := asm.Stack("Media")
	require.Equal(t, art.Body, body)

	raw, err := os.ReadFile(filepath.Join(dir, cfntheory.ManifestFile))
	require.NoError(t, err)
	manifest := gjson.ParseBytes(raw)
	require.Equal(t, "cfntheory/1", manifest.Get("version").String())
	require.Equal(t, "test-run-1", manifest.Get("runId").String())
	require.Equal(t, "json", manifest.Get("format").String())
	require.Equal(t, "Media.template.json", manifest.Get("stacks.0.templateFile").String())
	require.EqualValues(t, 1, manifest.Get("stacks.0.resources").Int())
}

func TestApp_SynthWritesToOutDirInFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	env := testkit.New()
	app := env.App(cfntheory.WithRegistry(testRegistry()), cfntheory.WithOutDir(dir), cfntheory.WithFormat(template.FormatYAML))
	stack, err := cfntheory.NewStack(app, "Media", &cfntheory.StackProps{StackName: "media-prod"})
	require.NoError(t, err)
	logs := newContainer(t, stack, "Logs", map[string]any{"ContainerName": "logs"})
	newLink(t, stack, "Link", logs.MustGetAtt("Endpoint"))

	asm := env.Synth(t, app)
	require.Equal(t, dir, asm.Directory)

	body, err := os.ReadFile(filepath.Join(dir, "media-prod.template.yaml"))
	require.NoError(t, err)
	parsed, err := template.ParseYAML(body)
	require.NoError(t, err)
	require.Equal(t, []string{"Logs", "Link"}, parsed.Resources.Names())

	link, _ := parsed.Resources.Get("Link")
	require.Equal(t, linkType, link.Type)
	source, _ := link.Properties.Get("Source")
	name, ok := template.IsIntrinsic(source)
	require.True(t, ok)
	require.Equal(t, "Fn::GetAtt", name)

	_, err = os.Stat(filepath.Join(dir, cfntheory.ManifestFile))
	require.NoError(t, err)
}

func TestApp_SynthRejectsDuplicateStackNames(t *testing.T) {
	t.Parallel()

	app := cfntheory.NewApp()
	_, err := cfntheory.NewStack(app, "A", &cfntheory.StackProps{StackName: "same"})
	require.NoError(t, err)
	_, err = cfntheory.NewStack(app, "B", &cfntheory.StackProps{StackName: "same"})
	require.NoError(t, err)

	_, err = app.Synth()
	require.Equal(t, cfntheory.ErrorCodeSynthesisFailed, cfntheory.ErrorCode(err))
}

func TestApp_SynthLogs(t *testing.T) {
	test := observability.NewTestLogger()
	logger.SetLogger(test)
	t.Cleanup(func() { logger.SetLogger(nil) })

	env, app, stack := newStack(t, "Media")
	newContainer(t, stack, "Logs", map[string]any{"ContainerName": "logs"})
	env.Synth(t, app)

	require.Equal(t, []string{"stack synthesized", "synthesis complete"}, test.Messages("info"))
	for _, e := range test.Entries() {
		if e.Level == "info" {
			require.Equal(t, "test-run-1", e.RunID)
		}
	}
}
