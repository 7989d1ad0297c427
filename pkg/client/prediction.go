package client

import (
	"context"
	"net/url"
	"strconv"

	ptypes "github.com/turtacn/MolProp-Intelligence/pkg/types/prediction"
)

// Predict runs one prediction. Pipeline failures (invalid SMILES, model not
// loaded) are not errors: the server answers 200 with Success=false and the
// reason in Error and ErrorCode.
func (c *Client) Predict(ctx context.Context, smiles string) (*ptypes.PredictionResponse, error) {
	var resp ptypes.PredictionResponse
	if err := c.post(ctx, "/predict", ptypes.PredictRequest{SMILES: smiles}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PredictBatch predicts every SMILES in one request. Results keep the
// request order. Oversized or empty batches fail with a 400 APIError.
func (c *Client) PredictBatch(ctx context.Context, smiles []string) (*ptypes.BatchPredictResponse, error) {
	var resp ptypes.BatchPredictResponse
	if err := c.post(ctx, "/predict/batch", ptypes.BatchPredictRequest{SMILES: smiles}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Properties lists the predicted properties in model output order.
func (c *Client) Properties(ctx context.Context) (*ptypes.PropertiesResponse, error) {
	var resp ptypes.PropertiesResponse
	if err := c.get(ctx, "/properties", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health returns the readiness summary. The endpoint always answers 200;
// check ModelLoaded.
func (c *Client) Health(ctx context.Context) (*ptypes.HealthResponse, error) {
	var resp ptypes.HealthResponse
	if err := c.get(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Info returns the service banner.
func (c *Client) Info(ctx context.Context) (*ptypes.ServiceInfo, error) {
	var resp ptypes.ServiceInfo
	if err := c.get(ctx, "/", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Recent lists the latest history records, newest first. limit <= 0 uses
// the server default. A 404 APIError means history is disabled.
func (c *Client) Recent(ctx context.Context, limit int) (*ptypes.RecentResponse, error) {
	path := "/predictions/recent"
	if limit > 0 {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(limit))
		path += "?" + q.Encode()
	}
	var resp ptypes.RecentResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

//Personal.AI order the ending
