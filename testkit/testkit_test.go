package testkit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/cfntheory"
	"github.com/theory-cloud/cfntheory/pkg/schema"
	"github.com/theory-cloud/cfntheory/testkit"
)

const queueType = "Test::Queue::Queue"

func registry() *schema.Registry {
	reg := schema.NewRegistry()
	reg.MustRegister(&schema.ResourceType{
		Name: queueType,
		Properties: []*schema.Property{
			schema.Required("QueueName", schema.String()),
			schema.Optional("Attributes", schema.MapOf(schema.String())),
			schema.Optional("Targets", schema.ListOf(schema.String())),
		},
		Attributes: []string{"Arn"},
	})
	return reg
}

func TestEnvDeterministicRunsAndTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	env := testkit.NewWithTime(now)
	env.IDs.Queue("fixed")

	stack := env.Stack(t, "Queues", cfntheory.WithRegistry(registry()))
	app := stack.App()

	asm := env.Synth(t, app)
	require.Equal(t, "fixed", asm.RunID)
	require.Equal(t, now, asm.CreatedAt)

	require.Equal(t, now.Add(time.Hour), env.Clock.Advance(time.Hour))
	asm = env.Synth(t, app)
	require.Equal(t, "test-run-1", asm.RunID)
	require.Equal(t, now.Add(time.Hour), asm.CreatedAt)

	env.IDs.Reset()
	env.Clock.Set(now)
	require.Equal(t, "test-run-1", env.IDs.NewID())
	require.Equal(t, now, env.Clock.Now())
}

func TestTemplateAssertions(t *testing.T) {
	t.Parallel()

	env := testkit.New()
	stack := env.Stack(t, "Queues", cfntheory.WithRegistry(registry()))
	orders, err := cfntheory.NewCfnResource(stack, "Orders", &cfntheory.CfnResourceProps{
		Type: queueType,
		Properties: map[string]any{
			"QueueName":  "orders.fifo",
			"Attributes": map[string]string{"b": "2", "a": "1"},
			"Targets":    []string{"x", "y"},
		},
	})
	require.NoError(t, err)
	_, err = cfntheory.NewCfnResource(stack, "Audit", &cfntheory.CfnResourceProps{
		Type:       queueType,
		Properties: map[string]any{"QueueName": "audit"},
	})
	require.NoError(t, err)
	_, err = cfntheory.NewCfnOutput(stack, "OrdersArn", &cfntheory.CfnOutputProps{Value: orders.MustGetAtt("Arn")})
	require.NoError(t, err)

	tmpl := testkit.FromStack(t, stack)
	tmpl.ResourceCountIs(queueType, 2)
	require.Equal(t, []string{"Orders", "Audit"}, tmpl.ResourcesOfType(queueType))
	require.Equal(t, []string{"QueueName", "Attributes", "Targets"}, tmpl.PropertyKeys("Orders"))

	tmpl.HasResourceProperties(queueType, map[string]any{"QueueName": "orders.fifo", "Attributes": map[string]any{"a": "1"}})
	tmpl.HasResourceProperties(queueType, map[string]any{"Targets": []any{"x", "y"}})
	tmpl.HasOutput("OrdersArn", map[string]any{"Fn::GetAtt": []any{"Orders", "Arn"}})

	require.Equal(t, "orders.fifo", tmpl.Get("Resources.Orders.Properties.QueueName").String())
	require.Equal(t, "Queues/Audit", tmpl.Resource("Audit").Get(`Metadata.aws:cdk:path`).String())
	require.Equal(t, `a\.b`, testkit.Key("a.b"))

	again := testkit.FromJSON(t, []byte(tmpl.JSON()))
	require.Equal(t, tmpl.JSON(), again.JSON())
}
