package collector

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"

	"github.com/aretw0/remotedev/pkg/domain"
)

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPISpec returns the OpenAPI document describing the collector routes.
func OpenAPISpec() []byte {
	return openAPISpec
}

var reportBody = sync.OnceValues(loadReportBody)

func loadReportBody() (*openapi3.RequestBody, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}
	item := doc.Paths.Value("/reports")
	if item == nil || item.Post == nil || item.Post.RequestBody == nil || item.Post.RequestBody.Value == nil {
		return nil, errors.New("openapi spec: POST /reports declares no request body")
	}
	return item.Post.RequestBody.Value, nil
}

// validateReport checks an already read report body against the Report
// schema. A request without Content-Type is treated as JSON.
func validateReport(r *http.Request, body []byte) error {
	rb, err := reportBody()
	if err != nil {
		return err
	}

	req := r.Clone(r.Context())
	req.Body = io.NopCloser(bytes.NewReader(body))
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	input := &openapi3filter.RequestValidationInput{
		Request: req,
		Options: &openapi3filter.Options{},
	}
	if err := openapi3filter.ValidateRequestBody(req.Context(), input, rb); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidReport, err)
	}
	return nil
}
