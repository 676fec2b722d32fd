package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// OpenAIEmbedder 基于 OpenAI 兼容接口的 Embedder 实现。
// 调用 POST {BaseURL}/v1/embeddings, 请求格式:
//
//	{ "input": [...], "model": "text-embedding-3-large", "dimensions": 1024 }
type OpenAIEmbedder struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewOpenAIEmbedder 创建 OpenAIEmbedder。
// baseURL 为空时使用 "https://api.openai.com"。
func NewOpenAIEmbedder(baseURL, apiKey string, timeout time.Duration) *OpenAIEmbedder {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIEmbedder{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: timeout},
	}
}

type openAIEmbeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Embed 调用 OpenAI 兼容的 embeddings 接口。
func (e *OpenAIEmbedder) Embed(ctx context.Context, req Request) ([][]float32, error) {
	if len(req.Inputs) == 0 {
		return [][]float32{}, nil
	}
	if e.APIKey == "" {
		return nil, fmt.Errorf("API key is required for OpenAIEmbedder")
	}

	data, err := json.Marshal(openAIEmbeddingRequest{
		Input:      req.Inputs,
		Model:      req.Model,
		Dimensions: req.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/v1/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp, req.Model)
	}

	var apiResp openAIEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Data) != len(req.Inputs) {
		return nil, fmt.Errorf("embedding response mismatch: got %d vectors, want %d", len(apiResp.Data), len(req.Inputs))
	}

	// data 按 index 对齐输入顺序
	sort.SliceStable(apiResp.Data, func(i, j int) bool {
		return apiResp.Data[i].Index < apiResp.Data[j].Index
	})

	out := make([][]float32, len(apiResp.Data))
	for i, d := range apiResp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		out[i] = vec
	}
	return out, nil
}

func decodeError(resp *http.Response, model string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var er openAIErrorResponse
	_ = json.Unmarshal(body, &er)

	if resp.StatusCode == http.StatusNotFound || er.Error.Code == "model_not_found" {
		return fmt.Errorf("model %q: %w", model, ErrModelNotFound)
	}

	msg := er.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	return &APIError{Status: resp.StatusCode, Code: er.Error.Code, Message: msg}
}

var _ Embedder = (*OpenAIEmbedder)(nil)
