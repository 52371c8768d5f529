package fleetclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fleetcare/domain"
	"fleetcare/domain/lifecycle"
	"fleetcare/misc"
	"fleetcare/sessions"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
)

// Client calls the lifecycle endpoints of a fleetcare server on behalf of one user.
type Client struct {
	BaseURL     string
	HTTPClient  *http.Client
	AccessToken string
}

func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTPClient: &http.Client{Timeout: 30 * time.Second}}
}

// Login opens a session and keeps its access token for the following calls.
func (c *Client) Login(ctx context.Context, name, password string) (*sessions.SessionDetail, error) {
	detail := sessions.SessionDetail{}
	if err := c.invoke(ctx, http.MethodPost, "/v1/sessions", map[string]string{"name": name, "password": password}, &detail); err != nil {
		return nil, err
	}
	c.AccessToken = detail.AccessToken
	return &detail, nil
}

func (c *Client) AssignReport(ctx context.Context, reportID, employeeID types.ID) (*domain.Report, error) {
	r := domain.Report{}
	if err := c.invoke(ctx, http.MethodPost, fmt.Sprintf("/v1/reports/%s/assign", reportID),
		&lifecycle.AssignRequest{EmployeeID: employeeID}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) CreateDiagnostic(ctx context.Context, creation *lifecycle.DiagnosticCreation) (*domain.Diagnostic, error) {
	d := domain.Diagnostic{}
	if err := c.invoke(ctx, http.MethodPost, "/v1/diagnostics", creation, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) ApproveDiagnostic(ctx context.Context, id types.ID) (*lifecycle.CascadeResult, error) {
	return c.cascade(ctx, fmt.Sprintf("/v1/diagnostics/%s/approve", id), nil)
}

func (c *Client) RejectDiagnostic(ctx context.Context, id types.ID, reason string) (*domain.Diagnostic, error) {
	d := domain.Diagnostic{}
	if err := c.invoke(ctx, http.MethodPost, fmt.Sprintf("/v1/diagnostics/%s/reject", id),
		&lifecycle.RejectRequest{Reason: reason}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) AdvanceWorkOrder(ctx context.Context, id types.ID, target domain.WorkOrderStatus) (*lifecycle.CascadeResult, error) {
	return c.cascade(ctx, fmt.Sprintf("/v1/work-orders/%s/advance", id), &lifecycle.AdvanceRequest{TargetStatus: target})
}

func (c *Client) ReopenWorkOrder(ctx context.Context, id types.ID) (*lifecycle.CascadeResult, error) {
	return c.cascade(ctx, fmt.Sprintf("/v1/work-orders/%s/reopen", id), nil)
}

func (c *Client) ClearReports(ctx context.Context) (*lifecycle.ClearResult, error) {
	result := lifecycle.ClearResult{}
	if err := c.invoke(ctx, http.MethodPost, "/v1/reports/clear", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) cascade(ctx context.Context, path string, body interface{}) (*lifecycle.CascadeResult, error) {
	result := lifecycle.CascadeResult{}
	if err := c.invoke(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) invoke(ctx context.Context, method, path string, reqBody, respBody interface{}) error {
	var payload []byte
	if reqBody != nil {
		var err error
		if payload, err = json.Marshal(reqBody); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &ErrHttpInvoke{Method: method, Url: req.URL.String(), Cause: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ErrHttpInvoke{Method: method, Url: req.URL.String(), StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := misc.ErrorBody{}
		if err := json.Unmarshal(data, &body); err != nil || body.Code == "" {
			return &ErrHttpInvoke{Method: method, Url: req.URL.String(), StatusCode: resp.StatusCode, RespBody: string(data)}
		}
		return newResponseError(resp.StatusCode, &body)
	}
	if respBody == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, respBody)
}
