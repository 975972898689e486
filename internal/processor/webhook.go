package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"marketplace/internal/model"
	"marketplace/pkg/client"
	"marketplace/pkg/json"
	"marketplace/pkg/logger"
)

const WebhookType = "Marketplace.Webhook"

// Webhook forwards actions to a provider endpoint as JSON:
//
//	POST {endpoint}/create|update|delete
//	GET  {endpoint}/resources/{backend_id}
//
// A 2xx answer may carry "backend_id", "pending" and a "metadata" object.
// Any other status fails the action with the "message" of the body.
type Webhook struct {
	endpoint   string
	client     *http.Client
	maxRetries uint64
}

func NewWebhook(endpoint string, timeout time.Duration, maxRetries uint64) *Webhook {
	return &Webhook{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		client:     client.New(timeout),
		maxRetries: maxRetries,
	}
}

func (*Webhook) Name() string {
	return WebhookType
}

type webhookRequest struct {
	Action     model.OrderType        `json:"action"`
	OrderID    string                 `json:"order_id"`
	ResourceID string                 `json:"resource_id"`
	BackendID  string                 `json:"backend_id,omitempty"`
	OfferingID string                 `json:"offering_id"`
	ProjectID  string                 `json:"project_id"`
	PlanID     string                 `json:"plan_id,omitempty"`
	Limits     model.Limits           `json:"limits,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	Actor      string                 `json:"actor"`
}

func (w *Webhook) Create(ctx context.Context, resource *model.Resource, order *model.Order, actor string) (*Result, error) {
	return w.send(ctx, "create", resource, order, actor)
}

func (w *Webhook) Update(ctx context.Context, resource *model.Resource, order *model.Order, actor string) (*Result, error) {
	return w.send(ctx, "update", resource, order, actor)
}

func (w *Webhook) Delete(ctx context.Context, resource *model.Resource, order *model.Order, actor string) (*Result, error) {
	return w.send(ctx, "delete", resource, order, actor)
}

func (w *Webhook) send(ctx context.Context, path string, resource *model.Resource, order *model.Order, actor string) (*Result, error) {
	body, err := json.Marshal(&webhookRequest{
		Action:     order.Type,
		OrderID:    order.ID,
		ResourceID: resource.ID,
		BackendID:  resource.BackendID,
		OfferingID: resource.OfferingID,
		ProjectID:  resource.ProjectID,
		PlanID:     order.PlanID,
		Limits:     order.Limits,
		Attributes: order.Attributes,
		Actor:      actor,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	resp, err := client.Do(ctx, w.client, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint+"/"+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		// lets the provider drop a replayed action
		req.Header.Set("Idempotency-Key", order.ID+"."+path)
		return req, nil
	}, w.maxRetries)
	if err != nil {
		return nil, &BackendError{Message: fmt.Sprintf("%s request failed", path), Err: err}
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendError{Message: "read response failed", Err: err}
	}
	if resp.StatusCode/100 != 2 {
		return nil, responseError(resp.StatusCode, content)
	}
	result := &Result{
		BackendID: gjson.GetBytes(content, "backend_id").String(),
		Pending:   gjson.GetBytes(content, "pending").Bool(),
	}
	if meta, ok := gjson.GetBytes(content, "metadata").Value().(map[string]interface{}); ok {
		result.Metadata = meta
	}
	logger.From(ctx).Debug("webhook answered",
		zap.String("action", path),
		zap.String("order_id", order.ID),
		zap.Bool("pending", result.Pending))
	return result, nil
}

func (w *Webhook) Pull(ctx context.Context, resource *model.Resource) (*Imported, error) {
	resp, err := client.Do(ctx, w.client, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, w.endpoint+"/resources/"+resource.BackendID, nil)
	}, w.maxRetries)
	if err != nil {
		return nil, &BackendError{Message: "pull request failed", Err: err}
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendError{Message: "read response failed", Err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrBackendObjectNotFound
	}
	if resp.StatusCode/100 != 2 {
		return nil, responseError(resp.StatusCode, content)
	}
	imported := &Imported{
		Name:         gjson.GetBytes(content, "name").String(),
		BackendID:    gjson.GetBytes(content, "backend_id").String(),
		RuntimeState: gjson.GetBytes(content, "runtime_state").String(),
	}
	if imported.BackendID == "" {
		imported.BackendID = resource.BackendID
	}
	if attrs, ok := gjson.GetBytes(content, "attributes").Value().(map[string]interface{}); ok {
		imported.Attributes = attrs
	}
	return imported, nil
}

func responseError(status int, content []byte) *BackendError {
	msg := gjson.GetBytes(content, "message").String()
	if msg == "" {
		msg = http.StatusText(status)
	}
	return NewBackendError("%s", msg)
}
