package predict

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var bundledContract []byte

const jsonContentType = "application/json"

// Contract checks payloads against the request and response schemas of the
// prediction API.
type Contract struct {
	request  *openapi3.Schema
	response *openapi3.Schema
}

// DefaultContract loads the bundled OpenAPI document.
func DefaultContract(ctx context.Context) (*Contract, error) {
	return LoadContract(ctx, bundledContract)
}

// LoadContract parses an OpenAPI document and extracts the POST /predict
// request and 200 response schemas.
func LoadContract(ctx context.Context, raw []byte) (*Contract, error) {
	if len(raw) == 0 {
		return nil, errors.New("predict contract: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("predict contract: load document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("predict contract: invalid document: %w", err)
	}
	if doc.Paths == nil {
		return nil, errors.New("predict contract: document does not contain any paths")
	}

	item := doc.Paths.Find("/predict")
	if item == nil || item.Post == nil {
		return nil, errors.New("predict contract: POST /predict is not defined")
	}
	op := item.Post

	contract := &Contract{}
	if op.RequestBody != nil && op.RequestBody.Value != nil {
		if media := op.RequestBody.Value.Content.Get(jsonContentType); media != nil && media.Schema != nil {
			contract.request = media.Schema.Value
		}
	}
	if op.Responses != nil {
		if ref := op.Responses.Status(http.StatusOK); ref != nil && ref.Value != nil {
			if media := ref.Value.Content.Get(jsonContentType); media != nil && media.Schema != nil {
				contract.response = media.Schema.Value
			}
		}
	}
	if contract.request == nil || contract.response == nil {
		return nil, errors.New("predict contract: /predict lacks JSON request or response schema")
	}
	return contract, nil
}

// CheckRequest validates an encoded request body.
func (c *Contract) CheckRequest(body []byte) error {
	if c == nil {
		return nil
	}
	return visit(c.request, body)
}

// CheckResponse validates an encoded 200 response body.
func (c *Contract) CheckResponse(body []byte) error {
	if c == nil {
		return nil
	}
	return visit(c.response, body)
}

func visit(schema *openapi3.Schema, body []byte) error {
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("%w: %v", ErrContractViolation, err)
	}
	if err := schema.VisitJSON(value); err != nil {
		return fmt.Errorf("%w: %v", ErrContractViolation, err)
	}
	return nil
}
