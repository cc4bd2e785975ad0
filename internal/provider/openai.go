package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"golang.org/x/time/rate"

	"github.com/petasbytes/go-mincore/tools"
)

const DefaultModel = string(openai.ChatModelGPT5Nano)

// ErrMissingAPIKey is returned when no API key is provided.
var ErrMissingAPIKey = errors.New("openai: API key is required")

// Options configures the OpenAI client.
type Options struct {
	APIKey  string
	BaseURL string
	// RequestsPerSecond paces turns client-side; 0 disables pacing.
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// OpenAI implements Client on the Responses API, where the response id is the
// server-side conversation handle.
type OpenAI struct {
	client  openai.Client
	limiter *rate.Limiter
}

// NewOpenAI returns a client for the Responses API.
func NewOpenAI(opts Options) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	o := &OpenAI{client: openai.NewClient(reqOpts...)}
	if opts.RequestsPerSecond > 0 {
		o.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return o, nil
}

// CreateTurn submits req and returns the provider's response.
func (o *OpenAI) CreateTurn(ctx context.Context, req TurnRequest) (*Response, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("openai: pacing: %w", err)
		}
	}

	params := responses.ResponseNewParams{
		Model: req.Model,
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: inputParams(req.Input)},
	}
	if req.PreviousID != "" {
		params.PreviousResponseID = openai.String(req.PreviousID)
	}
	if len(req.Tools) > 0 {
		params.Tools = toolParams(req.Tools)
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: create response: %w", err)
	}
	return fromResponse(resp), nil
}

func inputParams(items []InputItem) responses.ResponseInputParam {
	out := make(responses.ResponseInputParam, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case Message:
			out = append(out, responses.ResponseInputItemParamOfMessage(v.Content, responses.EasyInputMessageRole(v.Role)))
		case CallOutput:
			out = append(out, responses.ResponseInputItemParamOfFunctionCallOutput(v.CallID, v.Output))
		}
	}
	return out
}

func toolParams(schemas []tools.Schema) []responses.ToolUnionParam {
	out := make([]responses.ToolUnionParam, 0, len(schemas))
	for _, s := range schemas {
		t := responses.ToolParamOfFunction(s.Name, s.JSONSchema(), false)
		if s.Description != "" {
			t.OfFunction.Description = openai.String(s.Description)
		}
		out = append(out, t)
	}
	return out
}

func fromResponse(r *responses.Response) *Response {
	items := make([]string, 0, len(r.Output))
	for _, it := range r.Output {
		items = append(items, it.RawJSON())
	}
	return &Response{ID: r.ID, Text: r.OutputText(), Items: items}
}
