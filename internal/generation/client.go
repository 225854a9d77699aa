package generation

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/onoo-labs/marketing-assistant/internal/imaging"
	"github.com/onoo-labs/marketing-assistant/internal/logging"
)

// Config holds the credentials and throttling for the model API.
type Config struct {
	APIKey            string
	RequestsPerMinute int
}

// Client wraps the Gemini API. Every call waits on a shared token bucket.
type Client struct {
	genai   *genai.Client
	limiter *rate.Limiter
	log     logging.Logger
}

// NewClient connects to the Gemini API with cfg.APIKey.
func NewClient(ctx context.Context, cfg Config, log logging.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{
		genai:   gc,
		limiter: newLimiter(cfg.RequestsPerMinute),
		log:     log,
	}, nil
}

func newLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst)
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// GenerateText returns the full text of a single-turn completion.
func (c *Client) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	var cfg *genai.GenerateContentConfig
	if req.SystemInstruction != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		}
	}

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	c.log.FromContext(ctx).LogDebugf("generation.text", "model=%s latency=%s", req.Model, time.Since(start))

	return strings.TrimSpace(resp.Text()), nil
}

// GenerateImage returns one image. Imagen models go through the dedicated
// image endpoint; other models are asked for an IMAGE modality response
// and the first inline image part is used.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (imaging.RasterImage, error) {
	if err := c.wait(ctx); err != nil {
		return imaging.RasterImage{}, err
	}
	if isImagenModel(req.Model) {
		return c.generateImagen(ctx, req)
	}

	resp, err := c.genai.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage), string(genai.ModalityText)},
	})
	if err != nil {
		return imaging.RasterImage{}, fmt.Errorf("failed to generate image: %w", err)
	}
	return firstInlineImage(resp)
}

func (c *Client) generateImagen(ctx context.Context, req ImageRequest) (imaging.RasterImage, error) {
	mime := req.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	resp, err := c.genai.Models.GenerateImages(ctx, req.Model, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: mime,
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		return imaging.RasterImage{}, fmt.Errorf("failed to generate image: %w", err)
	}
	for _, gen := range resp.GeneratedImages {
		if gen != nil && gen.Image != nil && len(gen.Image.ImageBytes) > 0 {
			out := gen.Image.MIMEType
			if out == "" {
				out = mime
			}
			return imaging.RasterImage{Data: gen.Image.ImageBytes, MIMEType: out}, nil
		}
	}
	return imaging.RasterImage{}, ErrNoImage
}

func isImagenModel(model string) bool {
	return strings.HasPrefix(strings.TrimPrefix(model, "models/"), "imagen")
}

func firstInlineImage(resp *genai.GenerateContentResponse) (imaging.RasterImage, error) {
	if resp == nil {
		return imaging.RasterImage{}, ErrNoImage
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = imaging.MIMEPNG
			}
			return imaging.RasterImage{Data: part.InlineData.Data, MIMEType: mime}, nil
		}
	}
	return imaging.RasterImage{}, ErrNoImage
}

// StreamChat sends req as a multi-turn conversation and yields reply
// increments as they arrive. Iteration stops at the first error.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest) iter.Seq2[ChatChunk, error] {
	return func(yield func(ChatChunk, error) bool) {
		if err := c.wait(ctx); err != nil {
			yield(ChatChunk{}, err)
			return
		}

		cfg := &genai.GenerateContentConfig{}
		if req.SystemInstruction != "" {
			cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
		}
		if req.Search {
			cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
		}

		for resp, err := range c.genai.Models.GenerateContentStream(ctx, req.Model, chatContents(req), cfg) {
			if err != nil {
				yield(ChatChunk{}, fmt.Errorf("failed to stream chat: %w", err))
				return
			}
			chunk := ChatChunk{Text: resp.Text(), Sources: sourcesOf(resp)}
			if chunk.Text == "" && len(chunk.Sources) == 0 {
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

func chatContents(req ChatRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, t := range req.History {
		var role genai.Role = genai.RoleUser
		if t.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return append(contents, genai.NewContentFromText(req.Message, genai.RoleUser))
}
