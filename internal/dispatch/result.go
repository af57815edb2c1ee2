package dispatch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Status tags a dispatch outcome.
type Status string

const (
	StatusInProgress   Status = "in_progress"
	StatusSucceeded    Status = "succeeded"
	StatusFailed       Status = "failed"
	StatusNetworkError Status = "network_error"
)

// Asset is one normalized piece of generated content.
type Asset struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// Outcome is the single tagged result shape every dispatch call resolves to.
// Network-level failures carry Retryable so callers may re-submit them
// automatically; provider-reported failures are never retried.
type Outcome struct {
	Status    Status  `json:"status"`
	Code      int     `json:"code,omitempty"`
	Message   string  `json:"message,omitempty"`
	Retryable bool    `json:"retryable,omitempty"`
	Assets    []Asset `json:"assets,omitempty"`
}

// codes distinguishing "provider returned nothing" from "provider returned a
// structured error" inside an otherwise completed job.
const (
	codeNoData      = 501
	codeDetailError = 502
)

type detailEntry struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

type resultEnvelope struct {
	Images  []json.RawMessage `json:"images"`
	Image   *assetPayload     `json:"image"`
	Results []json.RawMessage `json:"results"`
	Video   *assetPayload     `json:"video"`
	Detail  json.RawMessage   `json:"detail"`
}

type assetPayload struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

func failure(code int, message string) Outcome {
	return Outcome{Status: StatusFailed, Code: code, Message: message}
}

func networkFailure(err error) Outcome {
	return Outcome{
		Status:    StatusNetworkError,
		Retryable: true,
		Message:   err.Error(),
	}
}

// failureFromBody classifies an HTTP error response. A detail[] array of
// {type, msg} entries is concatenated into one human-readable message with
// the original status code preserved; anything else degrades to a generic
// failure carrying that code.
func failureFromBody(code int, raw []byte) Outcome {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Detail) > 0 {
		if msg := detailMessage(envelope.Detail); msg != "" {
			return failure(code, msg)
		}
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(code)
	}
	if code == 0 {
		code = http.StatusInternalServerError
	}
	return failure(code, msg)
}

func detailMessage(detail json.RawMessage) string {
	var entries []detailEntry
	if err := json.Unmarshal(detail, &entries); err == nil && len(entries) > 0 {
		parts := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Msg == "" {
				continue
			}
			if e.Type != "" {
				parts = append(parts, fmt.Sprintf("%s: %s", e.Type, e.Msg))
			} else {
				parts = append(parts, e.Msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	var single string
	if err := json.Unmarshal(detail, &single); err == nil {
		return single
	}
	return ""
}

// normalizeResult validates that a completed job carries at least one
// recognized content shape. A detail envelope inside the result is a
// provider-structured error (502); absence of any content is "No data
// generated" (501).
func normalizeResult(raw []byte) Outcome {
	var envelope resultEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return failure(http.StatusInternalServerError, "provider returned an unreadable result")
	}
	if len(envelope.Detail) > 0 {
		msg := detailMessage(envelope.Detail)
		if msg == "" {
			msg = strings.TrimSpace(string(envelope.Detail))
		}
		return failure(codeDetailError, msg)
	}

	var assets []Asset
	for _, raw := range envelope.Images {
		if a, ok := decodeAsset(raw); ok {
			assets = append(assets, a)
		}
	}
	for _, raw := range envelope.Results {
		if a, ok := decodeAsset(raw); ok {
			assets = append(assets, a)
		}
	}
	if envelope.Image != nil && envelope.Image.URL != "" {
		assets = append(assets, assetFromPayload(*envelope.Image))
	}
	if envelope.Video != nil && envelope.Video.URL != "" {
		assets = append(assets, assetFromPayload(*envelope.Video))
	}
	if len(assets) == 0 {
		return failure(codeNoData, "No data generated")
	}
	return Outcome{Status: StatusSucceeded, Assets: assets}
}

// decodeAsset accepts either a bare URL string or an object payload.
func decodeAsset(raw json.RawMessage) (Asset, bool) {
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		if strings.TrimSpace(plain) == "" {
			return Asset{}, false
		}
		return Asset{URL: plain}, true
	}
	var payload assetPayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.URL != "" {
		return assetFromPayload(payload), true
	}
	return Asset{}, false
}

func assetFromPayload(p assetPayload) Asset {
	return Asset{
		URL:         p.URL,
		ContentType: p.ContentType,
		Width:       p.Width,
		Height:      p.Height,
	}
}
