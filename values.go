package cfntheory

import "github.com/aws/aws-sdk-go-v2/aws"

// String returns a pointer to v, for optional props fields.
func String(v string) *string { return aws.String(v) }

func Bool(v bool) *bool { return aws.Bool(v) }

func Int(v int) *int { return aws.Int(v) }

func Int64(v int64) *int64 { return aws.Int64(v) }

func Float64(v float64) *float64 { return aws.Float64(v) }
