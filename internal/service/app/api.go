package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"e2e_relay/internal/model"

	"github.com/gorilla/websocket"
)

type (
	userKey struct {
		Name      string `json:"name"`
		PublicKey []byte `json:"publicKey"`
	}
)

// getPublicKey returns nil, nil when the user does not exist.
func (c *App) getPublicKey(ctx context.Context, name string) (*userKey, error) {
	u := url.URL{
		Scheme: "http",
		Host:   c.host,
		Path:   fmt.Sprintf("/keys/%s", name),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get public key: unexpected status %s", resp.Status)
	}

	var uk userKey
	err = json.NewDecoder(resp.Body).Decode(&uk)
	if err != nil {
		return nil, err
	}

	return &uk, nil
}

func (c *App) signup(ctx context.Context, name string, pub []byte) error {
	body, err := json.Marshal(map[string]any{
		"name":      name,
		"publicKey": pub,
	})
	if err != nil {
		return err
	}

	u := url.URL{
		Scheme: "http",
		Host:   c.host,
		Path:   "/signup",
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("signup: unexpected status %s", resp.Status)
	}
	return nil
}

func (c *App) login(ctx context.Context, name string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"name": name,
	})
	if err != nil {
		return "", err
	}

	u := url.URL{
		Scheme: "http",
		Host:   c.host,
		Path:   "/login",
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}

	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login: unexpected status %s", resp.Status)
	}

	var lr struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", err
	}
	return lr.Token, nil
}

func (c *App) fetchHistory(ctx context.Context, peer string, limit int) ([]*model.Message, error) {
	u := url.URL{
		Scheme: "http",
		Host:   c.host,
		Path:   fmt.Sprintf("/history/%s", peer),
	}
	if limit > 0 {
		u.RawQuery = url.Values{"limit": []string{fmt.Sprint(limit)}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch history: unexpected status %s", resp.Status)
	}

	var msgs []*model.Message
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *App) initWebhook(token string) (*websocket.Conn, error) {
	params := url.Values{
		"token": []string{token},
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     c.host,
		Path:     "/ws",
		RawQuery: params.Encode(),
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	return conn, nil
}
