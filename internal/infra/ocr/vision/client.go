package vision

import (
	"context"
	"fmt"

	visionapi "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"github.com/bryanwahyu/spamshot/internal/domain/ocr"
)

// Annotator is the part of the Vision client this package calls.
type Annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)
}

// Client recognizes text with Google Cloud Vision.
type Client struct {
	annotator     Annotator
	closer        func() error
	LanguageHints []string
}

// New dials Vision. An empty credentialsFile uses application default credentials.
func New(ctx context.Context, credentialsFile string, languageHints []string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := visionapi.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: vision client: %v", ocr.ErrEngineUnavailable, err)
	}
	return &Client{annotator: gcpAnnotator{c}, closer: c.Close, LanguageHints: languageHints}, nil
}

// gcpAnnotator adapts the Vision client's variadic-option method to Annotator.
type gcpAnnotator struct {
	c *visionapi.ImageAnnotatorClient
}

func (g gcpAnnotator) BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
	return g.c.BatchAnnotateImages(ctx, req)
}

func NewWithAnnotator(a Annotator, languageHints []string) *Client {
	return &Client{annotator: a, LanguageHints: languageHints}
}

func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// feature maps dense layouts to document detection and sparse ones to plain
// text detection.
func feature(mode ocr.Mode) visionpb.Feature_Type {
	switch mode {
	case ocr.ModeSingleLine, ocr.ModeSparseText:
		return visionpb.Feature_TEXT_DETECTION
	default:
		return visionpb.Feature_DOCUMENT_TEXT_DETECTION
	}
}

func (c *Client) Recognize(ctx context.Context, image []byte, mode ocr.Mode) (string, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: feature(mode)}},
		}},
	}
	if len(c.LanguageHints) > 0 {
		req.Requests[0].ImageContext = &visionpb.ImageContext{LanguageHints: c.LanguageHints}
	}

	resp, err := c.annotator.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision annotate: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return "", nil
	}
	r := resp.GetResponses()[0]
	if e := r.GetError(); e != nil && e.GetCode() != 0 {
		return "", fmt.Errorf("vision annotate: code=%d %s", e.GetCode(), e.GetMessage())
	}
	if t := r.GetFullTextAnnotation().GetText(); t != "" {
		return t, nil
	}
	if anns := r.GetTextAnnotations(); len(anns) > 0 {
		return anns[0].GetDescription(), nil
	}
	return "", nil
}
