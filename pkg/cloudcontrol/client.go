// Package cloudcontrol reads the live model of deployed resources through
// the AWS Cloud Control API.
package cloudcontrol

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudcontrol"
	"github.com/tidwall/gjson"

	"github.com/theory-cloud/cfntheory/pkg/logger"
	"github.com/theory-cloud/cfntheory/pkg/propbag"
	"github.com/theory-cloud/cfntheory/pkg/schema"
)

var (
	ErrUnknownAttribute  = errors.New("cloudcontrol: attribute not declared by resource type")
	ErrAttributeNotFound = errors.New("cloudcontrol: attribute not present in resource model")
)

// Client reads resources by type name and primary identifier.
type Client interface {
	GetResource(ctx context.Context, typeName, identifier string) (*Resource, error)
	// GetAttribute reads one attribute declared by rt. Undeclared attributes
	// fail with ErrUnknownAttribute before any API call.
	GetAttribute(ctx context.Context, rt *schema.ResourceType, identifier, attribute string) (gjson.Result, error)
}

// Resource is a deployed resource as Cloud Control describes it.
type Resource struct {
	TypeName   string
	Identifier string
	// Properties is the resource model JSON document.
	Properties string
}

// Get queries the resource model with a gjson path. Attribute names such as
// "Endpoint" are valid paths.
func (r *Resource) Get(path string) gjson.Result {
	return gjson.Get(r.Properties, path)
}

// Model decodes the resource model, keeping document order.
func (r *Resource) Model() (*propbag.Bag, error) {
	var b propbag.Bag
	if err := b.UnmarshalJSON([]byte(r.Properties)); err != nil {
		return nil, fmt.Errorf("cloudcontrol: %s %s: %w", r.TypeName, r.Identifier, err)
	}
	return &b, nil
}

type cloudControlAPI interface {
	GetResource(
		ctx context.Context,
		params *cloudcontrol.GetResourceInput,
		optFns ...func(*cloudcontrol.Options),
	) (*cloudcontrol.GetResourceOutput, error)
}

type client struct {
	api cloudControlAPI
}

type clientOptions struct {
	api         cloudControlAPI
	awsCfg      *aws.Config
	region      string
	profile     string
	endpoint    string
	credentials aws.CredentialsProvider
}

type Option func(*clientOptions)

func WithAWSConfig(cfg aws.Config) Option {
	return func(opts *clientOptions) {
		cfgCopy := cfg
		opts.awsCfg = &cfgCopy
	}
}

func WithAPI(api cloudControlAPI) Option {
	return func(opts *clientOptions) {
		opts.api = api
	}
}

func WithRegion(region string) Option {
	return func(opts *clientOptions) {
		opts.region = strings.TrimSpace(region)
	}
}

// WithProfile selects a shared config profile.
func WithProfile(profile string) Option {
	return func(opts *clientOptions) {
		opts.profile = strings.TrimSpace(profile)
	}
}

// WithEndpoint overrides the service endpoint, e.g. for a local emulator.
func WithEndpoint(endpoint string) Option {
	return func(opts *clientOptions) {
		opts.endpoint = strings.TrimSpace(endpoint)
	}
}

func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) Option {
	return func(opts *clientOptions) {
		opts.credentials = credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)
	}
}

func NewClient(ctx context.Context, options ...Option) (Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := &clientOptions{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(opts)
	}

	if opts.api != nil {
		return &client{api: opts.api}, nil
	}

	var cfg aws.Config
	if opts.awsCfg != nil {
		cfg = *opts.awsCfg
	} else {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if opts.region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(opts.region))
		}
		if opts.profile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.profile))
		}
		if opts.credentials != nil {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(opts.credentials))
		}
		loaded, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("cloudcontrol: load aws config: %w", err)
		}
		cfg = loaded
	}

	svc := cloudcontrol.NewFromConfig(cfg, func(o *cloudcontrol.Options) {
		if opts.endpoint != "" {
			o.BaseEndpoint = aws.String(opts.endpoint)
		}
	})
	return &client{api: svc}, nil
}

func (c *client) GetResource(ctx context.Context, typeName, identifier string) (*Resource, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("cloudcontrol: client is nil")
	}
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		return nil, errors.New("cloudcontrol: type name is empty")
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, errors.New("cloudcontrol: identifier is empty")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	out, err := c.api.GetResource(ctx, &cloudcontrol.GetResourceInput{
		TypeName:   aws.String(typeName),
		Identifier: aws.String(identifier),
	})
	if err != nil {
		logger.Logger().Warn("cloud control read failed", map[string]any{
			"type":       typeName,
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("cloudcontrol: get %s %s: %w", typeName, identifier, err)
	}

	res := &Resource{TypeName: aws.ToString(out.TypeName), Identifier: identifier, Properties: "{}"}
	if res.TypeName == "" {
		res.TypeName = typeName
	}
	if d := out.ResourceDescription; d != nil {
		if id := aws.ToString(d.Identifier); id != "" {
			res.Identifier = id
		}
		if props := aws.ToString(d.Properties); props != "" {
			res.Properties = props
		}
	}
	if !gjson.Valid(res.Properties) {
		return nil, fmt.Errorf("cloudcontrol: %s %s: resource model is not valid JSON", typeName, identifier)
	}
	logger.Logger().Debug("cloud control resource read", map[string]any{
		"type":       res.TypeName,
		"identifier": res.Identifier,
	})
	return res, nil
}

func (c *client) GetAttribute(ctx context.Context, rt *schema.ResourceType, identifier, attribute string) (gjson.Result, error) {
	if rt == nil {
		return gjson.Result{}, errors.New("cloudcontrol: resource type is nil")
	}
	if !rt.HasAttribute(attribute) {
		return gjson.Result{}, fmt.Errorf("%w: %s has no attribute %s", ErrUnknownAttribute, rt.Name, attribute)
	}

	res, err := c.GetResource(ctx, rt.Name, identifier)
	if err != nil {
		return gjson.Result{}, err
	}
	v := res.Get(attributePath(attribute))
	if !v.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s %s", ErrAttributeNotFound, rt.Name, attribute)
	}
	return v, nil
}

// attributePath maps an attribute name to a gjson path. Nested attributes use
// dots in both forms.
func attributePath(attribute string) string {
	r := strings.NewReplacer("*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`)
	return r.Replace(attribute)
}
