package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// ListMarkets calls GET /markets with the given filters.
func (c *Client) ListMarkets(eventTicker, seriesTicker, status, cursor string, limit int) (MarketsResponse, error) {
	q := url.Values{}
	if eventTicker != "" {
		q.Set("event_ticker", eventTicker)
	}
	if seriesTicker != "" {
		q.Set("series_ticker", seriesTicker)
	}
	if status != "" {
		q.Set("status", status)
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}

	path := "/trade-api/v2/markets"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	var out MarketsResponse
	_, data, err := c.Do(http.MethodGet, path, nil)
	if err != nil {
		return out, err
	}
	return out, DecodeJSON(data, &out)
}

// GetMarket calls GET /markets/{ticker}.
func (c *Client) GetMarket(ticker string) (MarketEnvelope, error) {
	var out MarketEnvelope
	_, data, err := c.Do(http.MethodGet, "/trade-api/v2/markets/"+ticker, nil)
	if err != nil {
		return out, err
	}
	return out, DecodeJSON(data, &out)
}

// GetOrderbook calls GET /markets/{ticker}/orderbook.
func (c *Client) GetOrderbook(ticker string) (OrderbookResponse, error) {
	var out OrderbookResponse
	_, data, err := c.Do(http.MethodGet, "/trade-api/v2/markets/"+ticker+"/orderbook", nil)
	if err != nil {
		return out, err
	}
	return out, DecodeJSON(data, &out)
}

// GetExchangeStatus calls GET /exchange/status.
func (c *Client) GetExchangeStatus() (ExchangeStatusResponse, error) {
	var out ExchangeStatusResponse
	_, data, err := c.Do(http.MethodGet, "/trade-api/v2/exchange/status", nil)
	if err != nil {
		return out, err
	}
	return out, DecodeJSON(data, &out)
}

// GetBalance calls GET /portfolio/balance.
func (c *Client) GetBalance() (BalanceResponse, error) {
	var out BalanceResponse
	_, data, err := c.Do(http.MethodGet, "/trade-api/v2/portfolio/balance", nil)
	if err != nil {
		return out, err
	}
	return out, DecodeJSON(data, &out)
}

// GetPositions calls GET /portfolio/positions.
func (c *Client) GetPositions() (PositionsResponse, error) {
	var out PositionsResponse
	_, data, err := c.Do(http.MethodGet, "/trade-api/v2/portfolio/positions", nil)
	if err != nil {
		return out, err
	}
	return out, DecodeJSON(data, &out)
}

// GetOrders calls GET /portfolio/orders.
func (c *Client) GetOrders() (OrdersResponse, error) {
	var out OrdersResponse
	_, data, err := c.Do(http.MethodGet, "/trade-api/v2/portfolio/orders", nil)
	if err != nil {
		return out, err
	}
	return out, DecodeJSON(data, &out)
}

// PlaceOrder calls POST /portfolio/orders.
func (c *Client) PlaceOrder(body OrderRequestBody) (OrderResponse, error) {
	var out OrderResponse
	payload, err := json.Marshal(body)
	if err != nil {
		return out, fmt.Errorf("marshaling order request: %w", err)
	}
	_, data, err := c.Do(http.MethodPost, "/trade-api/v2/portfolio/orders", payload)
	if err != nil {
		return out, err
	}
	return out, DecodeJSON(data, &out)
}

// CancelOrder calls DELETE /portfolio/orders/{id}.
func (c *Client) CancelOrder(orderID string) error {
	_, _, err := c.Do(http.MethodDelete, "/trade-api/v2/portfolio/orders/"+orderID, nil)
	return err
}
