// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package boardsdk is the Go client for the boardroom service API.
package boardsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Client talks to a boardroom daemon
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	feedConn   *websocket.Conn
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Campaign mirrors the service API campaign resource
type Campaign struct {
	ID              string `json:"id"`
	Authority       string `json:"authority"`
	Index           uint64 `json:"index"`
	Name            string `json:"name"`
	AvailableBudget uint64 `json:"available_budget"`
	ReservedBudget  uint64 `json:"reserved_budget"`
}

// Booking mirrors the service API booking resource
type Booking struct {
	ID            string `json:"id"`
	Campaign      string `json:"campaign"`
	Location      string `json:"location"`
	SlotCount     uint32 `json:"slot_count"`
	TotalPrice    uint64 `json:"total_price"`
	Impressions   uint64 `json:"impressions"`
	SettledAmount uint64 `json:"settled_amount"`
	FeeAmount     uint64 `json:"fee_amount"`
	Status        uint8  `json:"status"`
}

// CreateAdvertiser registers an advertiser owner record.
func (c *Client) CreateAdvertiser(ctx context.Context, authority string) error {
	return c.post(ctx, "/api/v1/advertisers", map[string]any{"authority": authority}, nil)
}

// CreateProvider registers a provider owner record.
func (c *Client) CreateProvider(ctx context.Context, authority string) error {
	return c.post(ctx, "/api/v1/providers", map[string]any{"authority": authority}, nil)
}

// CreateCampaign creates a campaign with an initial budget.
func (c *Client) CreateCampaign(ctx context.Context, authority, name, description string, budget uint64) (*Campaign, error) {
	var campaign Campaign
	err := c.post(ctx, "/api/v1/campaigns", map[string]any{
		"authority":   authority,
		"name":        name,
		"description": description,
		"budget":      budget,
	}, &campaign)
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// BookRange books the slots of a location schedule contained in the
// given range.
func (c *Client) BookRange(ctx context.Context, req map[string]any) (*Booking, error) {
	var booking Booking
	if err := c.post(ctx, "/api/v1/bookings", req, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// SettleBooking settles an active booking against its device counter.
func (c *Client) SettleBooking(ctx context.Context, req map[string]any) (*Booking, error) {
	var booking Booking
	if err := c.post(ctx, "/api/v1/bookings/settle", req, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Analytics retrieves the real-time marketplace counters.
func (c *Client) Analytics(ctx context.Context) (map[string]uint64, error) {
	var snapshot map[string]uint64
	if err := c.get(ctx, "/api/v1/analytics", &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ConnectDeviceFeed opens the websocket device metric feed.
func (c *Client) ConnectDeviceFeed(ctx context.Context) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/v1/devices/feed"

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("X-API-Key", c.apiKey)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return err
	}
	if resp != nil {
		resp.Body.Close()
	}
	c.feedConn = conn
	return nil
}

// FeedAck is the daemon's response to one metric report
type FeedAck struct {
	OK               bool   `json:"ok"`
	Error            string `json:"error,omitempty"`
	TotalViews       uint64 `json:"total_views,omitempty"`
	TotalImpressions uint64 `json:"total_impressions,omitempty"`
}

// ReportMetrics pushes one device counter report over the feed and
// waits for the ack.
func (c *Client) ReportMetrics(authority, oracleAuthority string, index, views, impressions uint64) (FeedAck, error) {
	if c.feedConn == nil {
		return FeedAck{}, fmt.Errorf("device feed not connected")
	}

	report := map[string]any{
		"authority":        authority,
		"oracle_authority": oracleAuthority,
		"index":            index,
		"views":            views,
		"impressions":      impressions,
	}
	if err := c.feedConn.WriteJSON(report); err != nil {
		return FeedAck{}, err
	}

	var ack FeedAck
	if err := c.feedConn.ReadJSON(&ack); err != nil {
		return FeedAck{}, err
	}
	return ack, nil
}

// Close shuts the websocket feed down if open.
func (c *Client) Close() error {
	if c.feedConn == nil {
		return nil
	}
	err := c.feedConn.Close()
	c.feedConn = nil
	return err
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
