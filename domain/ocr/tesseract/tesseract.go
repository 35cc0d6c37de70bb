// Package tesseract adapts gosseract to the ocr.Recognizer interface.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"slices"

	"github.com/otiai10/gosseract/v2"

	"github.com/soocke/serialscan/domain/ocr"
)

// Client wraps a configured gosseract client. Not safe for concurrent use;
// ocr.Engine serializes access.
type Client struct {
	c *gosseract.Client
}

var _ ocr.Recognizer = (*Client)(nil)

// New is an ocr.Factory that loads the tesseract model for opts.Language.
func New(ctx context.Context, opts ocr.Options) (ocr.Recognizer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, fmt.Errorf("list tesseract languages: %w", err)
	}
	if opts.Language != "" && !slices.Contains(langs, opts.Language) {
		return nil, fmt.Errorf("tesseract language %q not installed (have %v)", opts.Language, langs)
	}
	c := gosseract.NewClient()
	if opts.Language != "" {
		if err := c.SetLanguage(opts.Language); err != nil {
			c.Close()
			return nil, fmt.Errorf("set language: %w", err)
		}
	}
	if opts.Whitelist != "" {
		if err := c.SetWhitelist(opts.Whitelist); err != nil {
			c.Close()
			return nil, fmt.Errorf("set whitelist: %w", err)
		}
	}
	if opts.PageSegMode > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
			c.Close()
			return nil, fmt.Errorf("set page seg mode: %w", err)
		}
	}
	return &Client{c: c}, nil
}

// Recognize returns the raw text found in img.
func (t *Client) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode ocr input: %w", err)
	}
	if err := t.c.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set ocr image: %w", err)
	}
	text, err := t.c.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}

func (t *Client) Close() error { return t.c.Close() }
