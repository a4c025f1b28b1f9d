package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const googleBatchEmbedEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:batchEmbedContents?key=%s"

// GoogleModel is a supported Google embedding model.
type GoogleModel string

const (
	ModelTextEmbedding004 GoogleModel = "text-embedding-004"
)

func (m GoogleModel) dimensions() int {
	switch m {
	case ModelTextEmbedding004:
		return 768
	default:
		return 768
	}
}

// GoogleEmbedder generates embeddings using the Gemini API.
type GoogleEmbedder struct {
	apiKey     string
	model      GoogleModel
	httpClient *http.Client
}

// NewGoogleEmbedder creates an embedder for the given Gemini model.
func NewGoogleEmbedder(apiKey string, model GoogleModel) *GoogleEmbedder {
	return &GoogleEmbedder{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

func (e *GoogleEmbedder) Name() string { return string(e.model) }

func (e *GoogleEmbedder) Dimensions() int { return e.model.dimensions() }

type googleEmbedContent struct {
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

type googleEmbedRequest struct {
	Model   string             `json:"model"`
	Content googleEmbedContent `json:"content"`
}

type googleBatchEmbedRequest struct {
	Requests []googleEmbedRequest `json:"requests"`
}

type googleBatchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := min(start+maxBatchSize, len(texts))
		vecs, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *GoogleEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	batch := googleBatchEmbedRequest{Requests: make([]googleEmbedRequest, len(texts))}
	for i, text := range texts {
		req := googleEmbedRequest{Model: "models/" + string(e.model)}
		req.Content.Parts = []struct {
			Text string `json:"text"`
		}{{Text: text}}
		batch.Requests[i] = req
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini embed request: %w", err)
	}

	url := fmt.Sprintf(googleBatchEmbedEndpoint, e.model, e.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create gemini embed request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini embed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gemini embed API status %d: %s", resp.StatusCode, string(respBody))
	}

	var result googleBatchEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode gemini embed response: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(result.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vecs[i] = emb.Values
	}
	return vecs, nil
}
