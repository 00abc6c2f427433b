package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	_ "github.com/theory-cloud/cfntheory/cfn/appregistry"
	_ "github.com/theory-cloud/cfntheory/cfn/finspace"
	_ "github.com/theory-cloud/cfntheory/cfn/mediastore"
	_ "github.com/theory-cloud/cfntheory/cfn/ram"
	"github.com/theory-cloud/cfntheory/pkg/logger"
	"github.com/theory-cloud/cfntheory/pkg/macro"
	"github.com/theory-cloud/cfntheory/pkg/observability"
	"github.com/theory-cloud/cfntheory/pkg/observability/zap"
	"github.com/theory-cloud/cfntheory/pkg/schema"
)

// envSpecFile names a CloudFormation resource specification whose types are
// added to the built-in bindings.
const envSpecFile = "CFNTHEORY_SPEC_FILE"

func buildRegistry() (*schema.Registry, error) {
	reg := schema.NewRegistry()
	reg.Merge(schema.Default)

	if path := os.Getenv(envSpecFile); path != "" {
		f, err := os.Open(path) //nolint:gosec // operator supplied path
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		spec, err := schema.LoadSpecification(f)
		if err != nil {
			return nil, err
		}
		reg.Merge(spec)
	}
	return reg, nil
}

func main() {
	log, err := zap.NewZapLogger(observability.LoggerConfig{Level: os.Getenv("LOG_LEVEL")})
	if err == nil {
		logger.SetLogger(log)
		defer func() { _ = log.Close() }()
	}

	reg, err := buildRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tag-macro: %v\n", err)
		os.Exit(1)
	}
	h := macro.NewHandler(macro.WithRegistry(reg))
	lambda.Start(func(ctx context.Context, req macro.Request) (macro.Response, error) {
		return h.Handle(ctx, req)
	})
}
