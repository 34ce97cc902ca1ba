package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/diwise/course-console/pkg/livingapps/errors"
	"github.com/diwise/course-console/pkg/livingapps/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type RecordStoreClient interface {
	ListRecords(ctx context.Context, appID string) ([]types.Record, error)
	CreateRecord(ctx context.Context, appID string, fields types.Fields) (types.Record, error)
	UpdateRecord(ctx context.Context, appID, recordID string, fields types.Fields) (types.Record, error)
	DeleteRecord(ctx context.Context, appID, recordID string) error
}

func Debug(enabled string) func(*rsClient) {
	return func(c *rsClient) {
		c.debug = (enabled == "true")
	}
}

func APIKey(key string) func(*rsClient) {
	return func(c *rsClient) {
		c.apiKey = key
	}
}

// ReferenceBaseURL overrides the host used when encoding reference fields,
// for deployments where api calls go through a proxy
func ReferenceBaseURL(base string) func(*rsClient) {
	return func(c *rsClient) {
		c.referenceBase = base
	}
}

func NewRecordStoreClient(baseURL string, options ...func(*rsClient)) RecordStoreClient {
	c := &rsClient{
		baseURL:       baseURL,
		referenceBase: baseURL,
		debug:         false,
	}

	for _, option := range options {
		option(c)
	}

	return c
}

const (
	TraceAttributeAppID    string = "app-id"
	TraceAttributeRecordID string = "record-id"
)

var tracer = otel.Tracer("livingapps-client")

type rsClient struct {
	baseURL       string
	referenceBase string
	apiKey        string
	debug         bool
}

type recordDTO struct {
	ID        string         `json:"id,omitempty"`
	Fields    map[string]any `json:"fields"`
	CreatedAt string         `json:"createdat,omitempty"`
	UpdatedAt string         `json:"updatedat,omitempty"`
}

func (c rsClient) ListRecords(ctx context.Context, appID string) ([]types.Record, error) {
	var err error

	ctx, span := tracer.Start(ctx, "list-records",
		trace.WithAttributes(attribute.String(TraceAttributeAppID, appID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	response, responseBody, err := c.callRecordStore(ctx, http.MethodGet, c.recordsURL(appID), nil)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		err = c.errorFromResponse(response, responseBody)
		return nil, err
	}

	records, err := decodeRecords(responseBody)
	if err != nil {
		if c.debug && len(responseBody) < 1000 {
			err = fmt.Errorf("unmarshaling of %s failed with err %s", string(responseBody), err.Error())
		}
		err = fmt.Errorf("%s (%w)", err.Error(), errors.ErrBadResponse)
		return nil, err
	}

	return records, nil
}

func (c rsClient) CreateRecord(ctx context.Context, appID string, fields types.Fields) (types.Record, error) {
	var err error

	ctx, span := tracer.Start(ctx, "create-record",
		trace.WithAttributes(attribute.String(TraceAttributeAppID, appID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	body, err := c.encodeFields(fields)
	if err != nil {
		return types.Record{}, err
	}

	response, responseBody, err := c.callRecordStore(ctx, http.MethodPost, c.recordsURL(appID), body)
	if err != nil {
		return types.Record{}, err
	}

	if response.StatusCode != http.StatusCreated && response.StatusCode != http.StatusOK {
		err = c.errorFromResponse(response, responseBody)
		return types.Record{}, err
	}

	record, err := c.decodeRecord(responseBody, "", fields)
	if err != nil {
		return types.Record{}, err
	}

	if record.ID == "" {
		logging.GetFromContext(ctx).Warn("record store did not return an id for the created record", "app", appID)
	}

	return record, nil
}

func (c rsClient) UpdateRecord(ctx context.Context, appID, recordID string, fields types.Fields) (types.Record, error) {
	var err error

	ctx, span := tracer.Start(ctx, "update-record",
		trace.WithAttributes(attribute.String(TraceAttributeAppID, appID)),
		trace.WithAttributes(attribute.String(TraceAttributeRecordID, recordID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	body, err := c.encodeFields(fields)
	if err != nil {
		return types.Record{}, err
	}

	response, responseBody, err := c.callRecordStore(ctx, http.MethodPatch, c.recordURL(appID, recordID), body)
	if err != nil {
		return types.Record{}, err
	}

	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusNoContent {
		err = c.errorFromResponse(response, responseBody)
		return types.Record{}, err
	}

	record, err := c.decodeRecord(responseBody, recordID, fields)
	if err != nil {
		return types.Record{}, err
	}

	return record, nil
}

func (c rsClient) DeleteRecord(ctx context.Context, appID, recordID string) error {
	var err error

	ctx, span := tracer.Start(ctx, "delete-record",
		trace.WithAttributes(attribute.String(TraceAttributeAppID, appID)),
		trace.WithAttributes(attribute.String(TraceAttributeRecordID, recordID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	response, responseBody, err := c.callRecordStore(ctx, http.MethodDelete, c.recordURL(appID, recordID), nil)
	if err != nil {
		return err
	}

	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusNoContent {
		err = c.errorFromResponse(response, responseBody)
		return err
	}

	return nil
}

func (c rsClient) recordsURL(appID string) string {
	return c.baseURL + "/rest/apps/" + url.PathEscape(appID) + "/records"
}

func (c rsClient) recordURL(appID, recordID string) string {
	return c.recordsURL(appID) + "/" + url.PathEscape(recordID)
}

func (c rsClient) errorFromResponse(response *http.Response, body []byte) error {
	contentType := response.Header.Get("Content-Type")
	if response.StatusCode >= http.StatusBadRequest {
		return errors.NewErrorFromResponse(response.StatusCode, contentType, body)
	}

	return fmt.Errorf("unexpected response code %d (%w)", response.StatusCode, errors.ErrInternal)
}

// encodeFields serializes typed references into the url format of the record store
func (c rsClient) encodeFields(fields types.Fields) (io.Reader, error) {
	encoded := make(map[string]any, len(fields))

	for name, value := range fields {
		if ref, ok := value.(types.Reference); ok {
			if ref.IsAbsent() {
				encoded[name] = nil
				continue
			}
			encoded[name] = types.BuildReferenceURL(c.referenceBase, ref.AppID, ref.RecordID)
			continue
		}
		encoded[name] = value
	}

	b, err := json.Marshal(recordDTO{Fields: encoded})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %s (%w)", err.Error(), errors.ErrInternal)
	}

	return bytes.NewBuffer(b), nil
}

func (c rsClient) decodeRecord(body []byte, recordID string, sent types.Fields) (types.Record, error) {
	dto := recordDTO{}

	if len(bytes.TrimSpace(body)) > 0 {
		err := json.Unmarshal(body, &dto)
		if err != nil {
			return types.Record{}, fmt.Errorf("failed to unmarshal record: %s (%w)", err.Error(), errors.ErrBadResponse)
		}
	}

	if dto.ID == "" {
		dto.ID = recordID
	}

	record := dto.toRecord(dto.ID)
	if dto.Fields == nil {
		record.Fields = sent.Clone()
	}

	return record, nil
}

// toRecord keeps field values as sent by the record store. Reference urls
// stay strings, fields.Reference decodes them for the fields that are references.
func (dto recordDTO) toRecord(recordID string) types.Record {
	fields := make(types.Fields, len(dto.Fields))

	for name, value := range dto.Fields {
		fields[name] = value
	}

	return types.Record{
		ID:        recordID,
		Fields:    fields,
		CreatedAt: dto.CreatedAt,
		UpdatedAt: dto.UpdatedAt,
	}
}

// decodeRecords reads the object of records keyed by record id, keeping the
// order in which the record store returned them
func decodeRecords(body []byte) ([]types.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected an object of records")
	}

	records := []types.Record{}

	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, err
		}

		recordID, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		dto := recordDTO{}
		if err = dec.Decode(&dto); err != nil {
			return nil, err
		}

		records = append(records, dto.toRecord(recordID))
	}

	return records, nil
}

func (c rsClient) callRecordStore(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, []byte, error) {
	httpClient := http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %s (%w)", err.Error(), errors.ErrInternal)
	}

	req.Header.Add("Accept", "application/json")

	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}

	if c.apiKey != "" {
		req.Header.Add("X-API-Key", c.apiKey)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %s (%w)", err.Error(), errors.ErrRequest)
	}

	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %s (%w)", err.Error(), errors.ErrBadResponse)
	}

	if c.debug && resp.StatusCode >= http.StatusBadRequest && resp.StatusCode != http.StatusNotFound {
		reqbytes, _ := httputil.DumpRequest(req, false)
		respbytes, _ := httputil.DumpResponse(resp, false)

		log := logging.GetFromContext(ctx)
		log.Error("request failed", "request", string(reqbytes), "response", string(respbytes))
	}

	return resp, respBody, nil
}
