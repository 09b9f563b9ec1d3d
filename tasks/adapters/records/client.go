package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

var errNoRecord = errors.New("record not found")

// envelope is the response shape of every record API call.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Results []result        `json:"results,omitempty"`
}

type result struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type fieldRef struct {
	Field struct {
		Name string `json:"Name"`
	} `json:"field"`
}

type orderBy struct {
	FieldName string `json:"fieldName"`
	SortType  string `json:"sorttype"`
}

type where struct {
	FieldName string `json:"FieldName"`
	Operator  string `json:"Operator"`
	Values    []any  `json:"Values"`
}

type paging struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// fetchParams selects records of one table.
type fetchParams struct {
	Fields     []fieldRef `json:"fields"`
	Where      []where    `json:"where,omitempty"`
	OrderBy    []orderBy  `json:"orderBy,omitempty"`
	PagingInfo *paging    `json:"pagingInfo,omitempty"`
}

func fields(names ...string) []fieldRef {
	out := make([]fieldRef, len(names))
	for i, n := range names {
		out[i].Field.Name = n
	}
	return out
}

type writeParams[T any] struct {
	Records []T `json:"records"`
}

type deleteParams struct {
	RecordIDs []int64 `json:"RecordIds"`
}

// client speaks the record API over HTTP.
type client struct {
	log       *slog.Logger
	http      *http.Client
	baseURL   string
	projectID string
	publicKey string
}

func newClient(log *slog.Logger, baseURL, projectID, publicKey string, timeout time.Duration) *client {
	return &client{
		log:       log,
		http:      &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		projectID: projectID,
		publicKey: publicKey,
	}
}

func (c *client) fetchRecords(ctx context.Context, table string, p fetchParams) (json.RawMessage, error) {
	env, err := c.do(ctx, http.MethodPost, "/tables/"+table+"/fetch", p)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *client) getRecordByID(ctx context.Context, table string, id int64, p fetchParams) (json.RawMessage, error) {
	env, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/tables/%s/records/%d", table, id), p)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, errNoRecord
	}
	return env.Data, nil
}

func (c *client) createRecord(ctx context.Context, table string, record any) (json.RawMessage, error) {
	env, err := c.do(ctx, http.MethodPost, "/tables/"+table+"/records", writeParams[any]{Records: []any{record}})
	if err != nil {
		return nil, err
	}
	return firstResult(env)
}

func (c *client) updateRecords(ctx context.Context, table string, records []any) ([]json.RawMessage, error) {
	env, err := c.do(ctx, http.MethodPatch, "/tables/"+table+"/records", writeParams[any]{Records: records})
	if err != nil {
		return nil, err
	}

	out := make([]json.RawMessage, 0, len(env.Results))
	for _, r := range env.Results {
		if !r.Success {
			return nil, remoteErr(r.Message)
		}
		out = append(out, r.Data)
	}
	return out, nil
}

func (c *client) deleteRecord(ctx context.Context, table string, id int64) error {
	env, err := c.do(ctx, http.MethodDelete, "/tables/"+table+"/records", deleteParams{RecordIDs: []int64{id}})
	if err != nil {
		return err
	}
	for _, r := range env.Results {
		if !r.Success {
			return remoteErr(r.Message)
		}
	}
	return nil
}

func firstResult(env envelope) (json.RawMessage, error) {
	if len(env.Results) == 0 {
		return nil, errors.New("no results returned")
	}
	r := env.Results[0]
	if !r.Success {
		return nil, remoteErr(r.Message)
	}
	return r.Data, nil
}

func remoteErr(msg string) error {
	if msg == "" {
		msg = "request failed"
	}
	return errors.New(msg)
}

// do sends one request and decodes the envelope. A 404 status maps to
// errNoRecord, any other failure is returned as is.
func (c *client) do(ctx context.Context, method, path string, body any) (envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return envelope{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return envelope{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Project-Id", c.projectID)
	req.Header.Set("X-Public-Key", c.publicKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return envelope{}, errNoRecord
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return envelope{}, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		c.log.Warn("record api call failed", "method", method, "path", path, "status", resp.StatusCode, "message", env.Message)
		return envelope{}, remoteErr(env.Message)
	}
	return env, nil
}
