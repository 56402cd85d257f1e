package translator

import (
	"context"
	"fmt"
	"strings"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleService translates through Google Cloud Translate. It is an
// alternative secondary backend for deployments that have no Hugging Face
// endpoint; its result fills the same candidate slot.
type GoogleService struct {
	credentials string
}

// NewGoogleService creates a Google Cloud Translate backend. credentials is
// a service-account file path; empty means ambient credentials.
func NewGoogleService(credentials string) *GoogleService {
	return &GoogleService{credentials: credentials}
}

func (s *GoogleService) Name() string { return "google" }

func (s *GoogleService) Translate(ctx context.Context, req Request) (string, error) {
	targetTag, err := language.Parse(req.TargetLang)
	if err != nil {
		return "", fmt.Errorf("invalid target language %q: %w", req.TargetLang, err)
	}
	sourceTag, err := language.Parse(req.SourceLang)
	if err != nil {
		return "", fmt.Errorf("invalid source language %q: %w", req.SourceLang, err)
	}

	var opts []option.ClientOption
	if s.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(s.credentials))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create google client: %v", ErrConfiguration, err)
	}
	defer client.Close()

	text := req.Idiom
	if req.Context != "" {
		text = req.Context + "\n" + idiomMarker + " " + req.Idiom
	}

	translations, err := client.Translate(ctx, []string{text}, targetTag, &translate.Options{
		Source: sourceTag,
	})
	if err != nil {
		return "", fmt.Errorf("google translation failed: %w", err)
	}
	if len(translations) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	translated := translations[0].Text
	if idx := strings.LastIndex(translated, idiomMarker); idx >= 0 {
		translated = translated[idx+len(idiomMarker):]
	}
	return strings.TrimSpace(translated), nil
}
