package video

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	config "github.com/brightlearn/tutor_backend/configs"
)

// RoomCode is one per-role join code returned by the conferencing provider.
type RoomCode struct {
	Role string `json:"role"`
	Code string `json:"code"`
}

// RoomAPI is the external video-conferencing provisioning surface.
type RoomAPI interface {
	CreateRoom(name string) (string, error)
	CreateRoomCodes(roomID string) ([]RoomCode, error)
	EndRoom(roomID string) error
}

type Config struct {
	APIBase         string
	ManagementToken string
	TemplateID      string
}

func LoadConfig() Config {
	return Config{
		APIBase:         config.ConfigOr("VIDEO_API_BASE_URL", "https://api.100ms.live"),
		ManagementToken: config.Config("VIDEO_MANAGEMENT_TOKEN"),
		TemplateID:      config.Config("VIDEO_TEMPLATE_ID"),
	}
}

type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.cfg.APIBase+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.ManagementToken))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("video API %s %s: status %d, body: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) CreateRoom(name string) (string, error) {
	payload := map[string]string{
		"name":        name,
		"template_id": c.cfg.TemplateID,
	}
	var room struct {
		ID string `json:"id"`
	}
	if err := c.do("POST", "/v2/rooms", payload, &room); err != nil {
		return "", err
	}
	if room.ID == "" {
		return "", fmt.Errorf("video API returned an empty room id")
	}
	return room.ID, nil
}

func (c *Client) CreateRoomCodes(roomID string) ([]RoomCode, error) {
	var result struct {
		Data []RoomCode `json:"data"`
	}
	if err := c.do("POST", fmt.Sprintf("/v2/room-codes/room/%s", roomID), nil, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

func (c *Client) EndRoom(roomID string) error {
	payload := map[string]interface{}{
		"reason": "lesson completed",
		"lock":   true,
	}
	return c.do("POST", fmt.Sprintf("/v2/active-rooms/%s/end-room", roomID), payload, nil)
}
