package payments

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/brightlearn/tutor_backend/configs"
)

// CheckoutSession is the hosted payment page the student is redirected to.
// Confirmation arrives out-of-band via webhook.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutClient is implemented by the external payment processor and by
// test doubles.
type CheckoutClient interface {
	CreateCheckoutSession(amount float64, currency string, metadata map[string]string) (*CheckoutSession, error)
}

type StripeConfig struct {
	APIBase    string
	SecretKey  string
	SuccessURL string
	CancelURL  string
}

func LoadStripeConfig() StripeConfig {
	return StripeConfig{
		APIBase:    config.ConfigOr("STRIPE_API_BASE_URL", "https://api.stripe.com"),
		SecretKey:  config.Config("STRIPE_SECRET_KEY"),
		SuccessURL: config.Config("CHECKOUT_SUCCESS_URL"),
		CancelURL:  config.Config("CHECKOUT_CANCEL_URL"),
	}
}

type StripeService struct {
	cfg    StripeConfig
	client *http.Client
}

func NewStripeService(cfg StripeConfig) *StripeService {
	return &StripeService{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *StripeService) CreateCheckoutSession(amount float64, currency string, metadata map[string]string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", s.cfg.SuccessURL)
	form.Set("cancel_url", s.cfg.CancelURL)
	form.Set("line_items[0][price_data][currency]", strings.ToLower(currency))
	form.Set("line_items[0][price_data][product_data][name]", "Tutoring lessons")
	form.Set("line_items[0][price_data][unit_amount]", fmt.Sprintf("%d", int64(amount*100)))
	form.Set("line_items[0][quantity]", "1")
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	req, err := http.NewRequest("POST", fmt.Sprintf("%s/v1/checkout/sessions", s.cfg.APIBase), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.cfg.SecretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to create checkout session: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}
