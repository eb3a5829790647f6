package goConsole

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrEthical07/goConsole/catalog"
	"github.com/MrEthical07/goConsole/pipeline"
	"github.com/MrEthical07/goConsole/validation"
)

const (
	pathLogin          = "/admin/login"
	pathProducts       = "/admin/products"
	pathProductInsides = "/admin/products/insides"
	pathText           = "/admin/text"
	pathTextTest       = "/admin/text/test"
)

// ListProducts returns every catalog row.
func (e *Engine) ListProducts(ctx context.Context) ([]catalog.ProductRecord, error) {
	var out []catalog.ProductRecord
	if err := e.call(ctx, http.MethodGet, pathProducts, nil, pipeline.AuthAttach, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []catalog.ProductRecord{}
	}
	return out, nil
}

// GetProduct returns the row with server id id.
func (e *Engine) GetProduct(ctx context.Context, id string) (*catalog.ProductRecord, error) {
	path, err := productPath(id)
	if err != nil {
		return nil, err
	}
	var out catalog.ProductRecord
	if err := e.call(ctx, http.MethodGet, path, nil, pipeline.AuthAttach, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProduct validates rec and creates it. An invalid record returns
// ErrInvalidInput without a network call.
func (e *Engine) CreateProduct(ctx context.Context, rec catalog.ProductRecord) (*catalog.ProductRecord, error) {
	if err := e.checkInput(e.validator.ValidateProduct(rec)); err != nil {
		return nil, err
	}
	rec.ID = ""
	var out catalog.ProductRecord
	if err := e.call(ctx, http.MethodPost, pathProducts, rec, pipeline.AuthAttach, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProductInsides validates upd and replaces the inside items of its
// row.
func (e *Engine) UpdateProductInsides(ctx context.Context, upd catalog.ProductUpdate) (*catalog.ProductRecord, error) {
	if err := e.checkInput(e.validator.ValidateProductUpdate(upd)); err != nil {
		return nil, err
	}
	var out catalog.ProductRecord
	if err := e.call(ctx, http.MethodPatch, pathProductInsides, upd, pipeline.AuthAttach, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProduct removes the row with server id id.
func (e *Engine) DeleteProduct(ctx context.Context, id string) (*catalog.DeleteResult, error) {
	path, err := productPath(id)
	if err != nil {
		return nil, err
	}
	var out catalog.DeleteResult
	if err := e.call(ctx, http.MethodDelete, path, nil, pipeline.AuthAttach, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetText returns the current text block.
func (e *Engine) GetText(ctx context.Context) (*catalog.TextContent, error) {
	var out catalog.TextContent
	if err := e.call(ctx, http.MethodGet, pathText, nil, pipeline.AuthAttach, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateText validates text and replaces the text block.
func (e *Engine) UpdateText(ctx context.Context, text catalog.TextContent) (*catalog.TextContent, error) {
	if err := e.checkInput(e.validator.ValidateText(text)); err != nil {
		return nil, err
	}
	var out catalog.TextContent
	if err := e.call(ctx, http.MethodPatch, pathText, text, pipeline.AuthAttach, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TestText probes the text collection. The reply shape is server defined.
func (e *Engine) TestText(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := e.call(ctx, http.MethodGet, pathTextTest, nil, pipeline.AuthAttach, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) call(ctx context.Context, method, path string, body any, auth pipeline.AuthPolicy, out any) error {
	if e == nil || e.pipeline == nil {
		return ErrEngineNotReady
	}
	resp, err := e.pipeline.Do(ctx, pipeline.Request{
		Method: method,
		Path:   path,
		Body:   body,
		Auth:   auth,
	})
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.Decode(out)
}

func (e *Engine) checkInput(res validation.Result) error {
	if res.Valid {
		return nil
	}
	e.metricInc(MetricValidationFailure)
	return fmt.Errorf("%w: %w", ErrInvalidInput, res.Err())
}

func productPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, &validation.Error{Messages: []string{"Product ID is required"}})
	}
	return pathProducts + "/" + url.PathEscape(id), nil
}
