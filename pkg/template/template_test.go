package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/cfntheory/pkg/propbag"
)

func sampleTemplate() *Template {
	t := New()
	t.Description = "media"

	props := propbag.New()
	props.Set("ContainerName", "logs")
	props.Set("AccessLoggingEnabled", true)
	t.Resources.Set("LogsContainer", &Resource{
		Type:       "AWS::MediaStore::Container",
		Properties: props,
	})

	share := propbag.New()
	share.Set("Name", "team-share")
	share.Set("ResourceArns", []any{GetAtt("LogsContainer", "Endpoint")})
	t.Resources.Set("Share", &Resource{
		Type:       "AWS::RAM::ResourceShare",
		DependsOn:  []string{"LogsContainer"},
		Properties: share,
	})

	t.Outputs.Set("Endpoint", &Output{Value: GetAtt("LogsContainer", "Endpoint"), ExportName: "logs-endpoint"})
	return t
}

func TestTemplate_JSONLayout(t *testing.T) {
	t.Parallel()

	out, err := sampleTemplate().JSON()
	require.NoError(t, err)
	require.JSONEq(t, `{
		"AWSTemplateFormatVersion": "2010-09-09",
		"Description": "media",
		"Resources": {
			"LogsContainer": {
				"Type": "AWS::MediaStore::Container",
				"Properties": {"ContainerName": "logs", "AccessLoggingEnabled": true}
			},
			"Share": {
				"Type": "AWS::RAM::ResourceShare",
				"DependsOn": ["LogsContainer"],
				"Properties": {
					"Name": "team-share",
					"ResourceArns": [{"Fn::GetAtt": ["LogsContainer", "Endpoint"]}]
				}
			}
		},
		"Outputs": {
			"Endpoint": {
				"Value": {"Fn::GetAtt": ["LogsContainer", "Endpoint"]},
				"Export": {"Name": "logs-endpoint"}
			}
		}
	}`, string(out))
	require.Less(t, strings.Index(string(out), "LogsContainer"), strings.Index(string(out), `"Share"`))
}

func TestTemplate_RoundTripsThroughBothFormats(t *testing.T) {
	t.Parallel()

	for _, f := range []Format{FormatJSON, FormatYAML} {
		data, err := sampleTemplate().Encode(f)
		require.NoError(t, err)

		parsed, err := Parse(data)
		require.NoError(t, err, string(data))
		require.Equal(t, []string{"LogsContainer", "Share"}, parsed.Resources.Names())

		share, ok := parsed.Resources.Get("Share")
		require.True(t, ok)
		require.Equal(t, []string{"LogsContainer"}, share.DependsOn)
		require.Equal(t, []string{"Name", "ResourceArns"}, share.Properties.Keys())

		out, ok := parsed.Outputs.Get("Endpoint")
		require.True(t, ok)
		require.Equal(t, "logs-endpoint", out.ExportName)
	}
}

func TestParseYAML_ExpandsShortForms(t *testing.T) {
	t.Parallel()

	doc := `
Conditions:
  IsProd: !Equals [!Ref Stage, prod]
Resources:
  Share:
    Type: AWS::RAM::ResourceShare
    Condition: IsProd
    Properties:
      Name: !Sub "${AWS::StackName}-share"
      Principals:
        - !Ref AWS::AccountId
      ResourceArns:
        - !GetAtt Logs.Endpoint
`
	tmpl, err := ParseYAML([]byte(doc))
	require.NoError(t, err)

	share, ok := tmpl.Resources.Get("Share")
	require.True(t, ok)
	require.Equal(t, "IsProd", share.Condition)

	name, err := share.Properties.GetPath("Name")
	require.NoError(t, err)
	fnName, ok := IsIntrinsic(name)
	require.True(t, ok)
	require.Equal(t, "Fn::Sub", fnName)

	arn, err := share.Properties.GetPath("ResourceArns[0]")
	require.NoError(t, err)
	require.True(t, arn.(*propbag.Bag).Equal(GetAtt("Logs", "Endpoint")))

	principal, err := share.Properties.GetPath("Principals[0]")
	require.NoError(t, err)
	require.True(t, principal.(*propbag.Bag).Equal(Ref("AWS::AccountId")))

	cond, err := tmpl.Other.GetPath("Conditions.IsProd")
	require.NoError(t, err)
	fnName, ok = IsIntrinsic(cond)
	require.True(t, ok)
	require.Equal(t, "Fn::Equals", fnName)
}

func TestFromBag_Errors(t *testing.T) {
	t.Parallel()

	_, err := ParseJSON([]byte(`{"Resources": {"A": {"Properties": {}}}}`))
	require.ErrorContains(t, err, "missing Type")

	_, err = ParseJSON([]byte(`{"Resources": {"A": {"Type": 3}}}`))
	require.ErrorContains(t, err, "expected string")

	_, err = ParseJSON([]byte(`{"Resources": []}`))
	require.ErrorContains(t, err, "expected mapping")

	_, err = ParseJSON([]byte(`{"Outputs": {"O": {"Description": "x"}}}`))
	require.ErrorContains(t, err, "missing Value")
}

func TestResource_ExtraAttributesSurvive(t *testing.T) {
	t.Parallel()

	tmpl, err := ParseJSON([]byte(`{"Resources": {"A": {"Type": "AWS::X::Y", "UpdatePolicy": {"K": "v"}}}}`))
	require.NoError(t, err)
	out, err := tmpl.JSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"Resources": {"A": {"Type": "AWS::X::Y", "UpdatePolicy": {"K": "v"}}}}`, string(out))
}

func TestIsIntrinsic(t *testing.T) {
	t.Parallel()

	_, ok := IsIntrinsic(Ref("X"))
	require.True(t, ok)
	_, ok = IsIntrinsic(map[string]any{"Fn::Join": []any{"", []any{"a"}}})
	require.True(t, ok)
	_, ok = IsIntrinsic(map[string]any{"Key": "v"})
	require.False(t, ok)
	_, ok = IsIntrinsic(map[string]any{"Ref": "a", "Other": "b"})
	require.False(t, ok)
	_, ok = IsIntrinsic("Ref")
	require.False(t, ok)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	f, err := ParseFormat(" YML ")
	require.NoError(t, err)
	require.Equal(t, FormatYAML, f)
	require.Equal(t, ".yaml", f.Ext())
	require.Equal(t, ".json", FormatJSON.Ext())

	_, err = ParseFormat("toml")
	require.Error(t, err)
}
