// Package macro implements a CloudFormation macro that applies stack-level
// tags to every taggable resource in a template fragment, in the tag form
// each resource type expects.
package macro

import (
	"context"
	"errors"
	"fmt"

	"github.com/theory-cloud/cfntheory/pkg/logger"
	"github.com/theory-cloud/cfntheory/pkg/propbag"
	"github.com/theory-cloud/cfntheory/pkg/schema"
	"github.com/theory-cloud/cfntheory/pkg/tags"
	"github.com/theory-cloud/cfntheory/pkg/template"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Request is the event CloudFormation sends to a macro function.
type Request struct {
	Region                  string         `json:"region"`
	AccountID               string         `json:"accountId"`
	Fragment                *propbag.Bag   `json:"fragment"`
	TransformID             string         `json:"transformId"`
	Params                  map[string]any `json:"params"`
	RequestID               string         `json:"requestId"`
	TemplateParameterValues map[string]any `json:"templateParameterValues"`
}

// Response is the macro result. Fragment is omitted on failure.
type Response struct {
	RequestID    string       `json:"requestId"`
	Status       string       `json:"status"`
	Fragment     *propbag.Bag `json:"fragment,omitempty"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
}

// Handler merges params.Tags into taggable resources. Resource types missing
// from the registry are left untouched.
type Handler struct {
	registry *schema.Registry
}

type Option func(*Handler)

func WithRegistry(reg *schema.Registry) Option {
	return func(h *Handler) {
		if reg != nil {
			h.registry = reg
		}
	}
}

func NewHandler(opts ...Option) *Handler {
	h := &Handler{registry: schema.Default}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Handle never returns an error; failures are reported in the response as
// CloudFormation expects.
func (h *Handler) Handle(ctx context.Context, req Request) (Response, error) {
	log := logger.Logger().WithFields(map[string]any{
		"request_id":   req.RequestID,
		"transform_id": req.TransformID,
	})
	if err := ctx.Err(); err != nil {
		return failure(req, err), nil
	}

	fragment, tagged, err := h.apply(req)
	if err != nil {
		log.Warn("macro failed", map[string]any{"error": err.Error()})
		return failure(req, err), nil
	}
	log.Info("macro applied", map[string]any{"tagged_resources": tagged})
	return Response{RequestID: req.RequestID, Status: StatusSuccess, Fragment: fragment}, nil
}

func failure(req Request, err error) Response {
	return Response{RequestID: req.RequestID, Status: StatusFailure, ErrorMessage: err.Error()}
}

func (h *Handler) apply(req Request) (*propbag.Bag, int, error) {
	if req.Fragment == nil {
		return nil, 0, errors.New("macro: fragment is empty")
	}
	fragment := req.Fragment.Clone()

	inherited, err := tags.Pairs(req.Params["Tags"])
	if err != nil {
		return nil, 0, fmt.Errorf("macro: params.Tags: %w", err)
	}
	if len(inherited) == 0 {
		return fragment, 0, nil
	}

	raw, _ := fragment.Get("Resources")
	resources, ok := raw.(*propbag.Bag)
	if !ok {
		return fragment, 0, nil
	}

	tagged := 0
	for logicalID, v := range resources.All() {
		res, ok := v.(*propbag.Bag)
		if !ok {
			return nil, 0, fmt.Errorf("macro: resource %s is not a mapping", logicalID)
		}
		changed, err := h.tagResource(logicalID, res, inherited)
		if err != nil {
			return nil, 0, err
		}
		if changed {
			tagged++
		}
	}
	return fragment, tagged, nil
}

// tagResource merges inherited into res in place. Tag values that are not
// plain strings, such as intrinsic functions, leave the resource unchanged.
func (h *Handler) tagResource(logicalID string, res *propbag.Bag, inherited []tags.Tag) (bool, error) {
	typeName, _ := res.Get("Type")
	name, _ := typeName.(string)
	rt, ok := h.registry.Lookup(name)
	if !ok || rt.TagStyle == tags.StyleNone {
		return false, nil
	}

	rawProps, _ := res.Get("Properties")
	props, ok := rawProps.(*propbag.Bag)
	if rawProps != nil && !ok {
		return false, fmt.Errorf("macro: resource %s: Properties is not a mapping", logicalID)
	}
	if props == nil {
		props = propbag.New()
	}

	field := tagField(rt)
	own, _ := props.Get(field)
	if _, intrinsic := template.IsIntrinsic(own); intrinsic {
		return false, nil
	}
	merged, err := tags.Merge(rt.TagStyle, tags.List(inherited), own)
	if err != nil {
		logger.Logger().Warn("tags left unchanged", map[string]any{
			"logical_id": logicalID,
			"error":      err.Error(),
		})
		return false, nil
	}

	props.Set(field, render(merged))
	res.Set("Properties", props)
	return true, nil
}

func tagField(rt *schema.ResourceType) string {
	for _, p := range rt.Properties {
		if p.Type.Kind == schema.KindTags {
			return p.Name
		}
	}
	return "Tags"
}

// render converts normalized tags to their template form.
func render(v any) any {
	switch t := v.(type) {
	case tags.List:
		out := make([]any, 0, len(t))
		for _, tag := range t {
			b := propbag.New()
			b.Set("Key", tag.Key)
			b.Set("Value", tag.Value)
			out = append(out, b)
		}
		return out
	case tags.Map:
		b := propbag.New()
		pairs, _ := tags.Pairs(t)
		for _, p := range pairs {
			b.Set(p.Key, p.Value)
		}
		return b
	default:
		return v
	}
}
