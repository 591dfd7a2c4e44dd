// Package scanner classifies images through an external moderation service.
package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrUnavailable means no verdict could be determined. Callers must treat it as a rejection.
var ErrUnavailable = errors.New("visual content scanner unavailable")

// Scanner returns a safety verdict for an image on local disk.
type Scanner interface {
	CheckImage(ctx context.Context, path string) (Result, error)
}

// Config configures a Sightengine client.
// Thresholds defaults to DefaultThresholds() and HTTPClient to an instrumented client with Timeout.
type Config struct {
	Endpoint        string
	APIUser         string
	APISecret       string
	Models          string
	Timeout         time.Duration
	BreakerCooldown time.Duration
	Thresholds      map[Category]float64
	HTTPClient      *http.Client
}

// Sightengine calls the Sightengine check endpoint. It is safe for concurrent use.
type Sightengine struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[Scores]
}

var _ Scanner = (*Sightengine)(nil)

var tracer = otel.Tracer("catalogapi/scanner")

// NewSightengine validates cfg and builds the client with its circuit breaker.
func NewSightengine(cfg Config) (*Sightengine, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("scanner endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Thresholds == nil {
		cfg.Thresholds = DefaultThresholds()
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	var st gobreaker.Settings
	st.Name = "visual-content-scanner"
	st.Timeout = cfg.BreakerCooldown
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn().
			Str("component", "scanner").
			Str("breaker", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit breaker state changed")
	}

	return &Sightengine{
		cfg:     cfg,
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[Scores](st),
	}, nil
}

// CheckImage submits the file at path and reduces the response with Evaluate.
// Any failure to obtain a well-formed response wraps ErrUnavailable.
func (s *Sightengine) CheckImage(ctx context.Context, path string) (Result, error) {
	ctx, span := tracer.Start(ctx, "scanner.CheckImage")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	body, contentType, err := s.buildForm(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read image")
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	scores, err := s.breaker.Execute(func() (Scores, error) {
		return s.post(ctx, body, contentType)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	res := Evaluate(scores, s.cfg.Thresholds)
	span.SetAttributes(attribute.Bool("scanner.safe", res.Safe))
	return res, nil
}

func (s *Sightengine) buildForm(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	fields := map[string]string{
		"models":     s.cfg.Models,
		"api_user":   s.cfg.APIUser,
		"api_secret": s.cfg.APISecret,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

type probability struct {
	Prob float64 `json:"prob"`
}

type checkResponse struct {
	Status string `json:"status"`
	Error  *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	Nudity *struct {
		SexualActivity float64 `json:"sexual_activity"`
		SexualDisplay  float64 `json:"sexual_display"`
	} `json:"nudity"`
	Weapon    *probability `json:"weapon"`
	Alcohol   *probability `json:"alcohol"`
	Drugs     *probability `json:"drugs"`
	Offensive *probability `json:"offensive"`
	Violence  *probability `json:"violence"`
	Gore      *probability `json:"gore"`
}

func (s *Sightengine) post(ctx context.Context, body []byte, contentType string) (Scores, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(msg))
	}

	var out checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	if out.Status != "success" {
		if out.Error != nil {
			return nil, fmt.Errorf("scan rejected: %s: %s", out.Error.Type, out.Error.Message)
		}
		return nil, fmt.Errorf("scan rejected: status %q", out.Status)
	}

	return out.scores(), nil
}

func (r checkResponse) scores() Scores {
	sc := Scores{}
	if r.Nudity != nil {
		sc[CategorySexualActivity] = r.Nudity.SexualActivity
		sc[CategorySexualDisplay] = r.Nudity.SexualDisplay
	}
	set := func(cat Category, p *probability) {
		if p != nil {
			sc[cat] = p.Prob
		}
	}
	set(CategoryWeapon, r.Weapon)
	set(CategoryAlcohol, r.Alcohol)
	set(CategoryDrugs, r.Drugs)
	set(CategoryOffensive, r.Offensive)
	set(CategoryViolence, r.Violence)
	set(CategoryGore, r.Gore)
	return sc
}
