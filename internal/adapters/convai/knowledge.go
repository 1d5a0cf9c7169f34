package convai

import (
	"context"
	"net/url"
	"strconv"
)

const (
	kbEndpoint     = "/v1/convai/knowledge-base"
	kbTextEndpoint = "/v1/convai/knowledge-base/text"
	kbURLEndpoint  = "/v1/convai/knowledge-base/url"
)

// CreateDocumentFromURL adds a web page to the knowledge base.
func (c *Client) CreateDocumentFromURL(ctx context.Context, docURL, name string) (map[string]interface{}, error) {
	payload := map[string]interface{}{"url": docURL}
	if name != "" {
		payload["name"] = name
	}

	var result map[string]interface{}
	if err := c.post(ctx, kbURLEndpoint, payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateDocumentFromText adds a raw text document to the knowledge base.
func (c *Client) CreateDocumentFromText(ctx context.Context, text, name string) (map[string]interface{}, error) {
	payload := map[string]interface{}{"text": text}
	if name != "" {
		payload["name"] = name
	}

	var result map[string]interface{}
	if err := c.post(ctx, kbTextEndpoint, payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListDocuments lists knowledge base documents.
func (c *Client) ListDocuments(ctx context.Context, cursor string, pageSize int) (map[string]interface{}, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}

	var result map[string]interface{}
	if err := c.get(ctx, kbEndpoint, query, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetDocument returns one knowledge base document's metadata.
func (c *Client) GetDocument(ctx context.Context, documentID string) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := c.get(ctx, kbEndpoint+"/"+documentID, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteDocument removes a knowledge base document.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	return c.delete(ctx, kbEndpoint+"/"+documentID)
}
