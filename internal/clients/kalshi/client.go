// Package kalshi adapts the low-level signed SDK client to the
// domain.ExchangeClient interface, translating wire models into domain
// entities (most importantly, the Strike sum type).
package kalshi

import (
	"context"
	"fmt"

	"github.com/kalshiwx/sentinel/internal/clients/kalshi/sdk"
	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/rs/zerolog"
)

const (
	liveBaseURL = "https://api.elections.kalshi.com"
	demoBaseURL = "https://demo-api.kalshi.co"
)

// Client implements domain.ExchangeClient against the Kalshi REST API.
type Client struct {
	sdk *sdk.Client
	log zerolog.Logger
}

// BaseURL picks the live or demo host.
func BaseURL(useDemo bool) string {
	if useDemo {
		return demoBaseURL
	}
	return liveBaseURL
}

// New builds a Client authenticated against the given API key/private key pair.
func New(apiKeyID, privateKeyPath string, useDemo bool, log zerolog.Logger) (*Client, error) {
	low, err := sdk.NewClient(apiKeyID, privateKeyPath, BaseURL(useDemo), log)
	if err != nil {
		return nil, err
	}
	return &Client{sdk: low, log: log.With().Str("component", "kalshi-client").Logger()}, nil
}

// Close releases the underlying rate-limited worker.
func (c *Client) Close() { c.sdk.Close() }

func toStrike(m sdk.MarketResponse) (domain.Strike, error) {
	switch {
	case m.FloorStrike != nil && m.CapStrike != nil:
		return domain.NewBracket(*m.FloorStrike, *m.CapStrike), nil
	case m.FloorStrike != nil:
		return domain.NewGreaterThan(*m.FloorStrike), nil
	case m.CapStrike != nil:
		return domain.NewLessThan(*m.CapStrike), nil
	default:
		return nil, fmt.Errorf("market %s has neither floor_strike nor cap_strike", m.Ticker)
	}
}

func toMarket(m sdk.MarketResponse) (domain.Market, error) {
	strike, err := toStrike(m)
	if err != nil {
		return domain.Market{}, err
	}
	return domain.Market{
		Ticker:      m.Ticker,
		EventTicker: m.EventTicker,
		Status:      m.Status,
		Result:      m.Result,
		Strike:      strike,
		YesBid:      m.YesBid,
		YesAsk:      m.YesAsk,
		NoBid:       m.NoBid,
		NoAsk:       m.NoAsk,
	}, nil
}

// Markets implements domain.ExchangeClient.
func (c *Client) Markets(ctx context.Context, eventTicker, seriesTicker, status string) ([]domain.Market, error) {
	resp, err := c.sdk.ListMarkets(eventTicker, seriesTicker, status, "", 200)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Market, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		dm, err := toMarket(m)
		if err != nil {
			c.log.Warn().Err(err).Str("ticker", m.Ticker).Msg("skipping market with unparseable strike")
			continue
		}
		out = append(out, dm)
	}
	return out, nil
}

// Market implements domain.ExchangeClient.
func (c *Client) Market(ctx context.Context, ticker string) (domain.Market, error) {
	resp, err := c.sdk.GetMarket(ticker)
	if err != nil {
		return domain.Market{}, err
	}
	return toMarket(resp.Market)
}

// Orderbook implements domain.ExchangeClient. The exchange's orderbook
// endpoint returns raw price levels rather than top-of-book bid/ask, so we
// fold it down to the same Market shape callers already use for quoting.
func (c *Client) Orderbook(ctx context.Context, ticker string) (domain.Market, error) {
	m, err := c.Market(ctx, ticker)
	if err != nil {
		return domain.Market{}, err
	}
	ob, err := c.sdk.GetOrderbook(ticker)
	if err != nil {
		return domain.Market{}, err
	}
	if best := topOfBook(ob.Orderbook.Yes); best > 0 {
		m.YesBid = best
	}
	if best := topOfBook(ob.Orderbook.No); best > 0 {
		m.NoBid = best
	}
	return m, nil
}

func topOfBook(levels [][2]int) int {
	best := 0
	for _, l := range levels {
		if l[0] > best {
			best = l[0]
		}
	}
	return best
}

// ExchangeStatus implements domain.ExchangeClient.
func (c *Client) ExchangeStatus(ctx context.Context) (bool, error) {
	resp, err := c.sdk.GetExchangeStatus()
	if err != nil {
		return false, err
	}
	return resp.TradingActive, nil
}

// Balance implements domain.ExchangeClient.
func (c *Client) Balance(ctx context.Context) (int64, error) {
	resp, err := c.sdk.GetBalance()
	if err != nil {
		return 0, err
	}
	return resp.BalanceCents, nil
}

// Positions implements domain.ExchangeClient.
func (c *Client) Positions(ctx context.Context) ([]domain.Position, error) {
	resp, err := c.sdk.GetPositions()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Position, 0, len(resp.MarketPositions))
	for _, p := range resp.MarketPositions {
		out = append(out, domain.Position{
			Ticker:              p.Ticker,
			PositionQtySigned:   p.Position,
			MarketExposureCents: p.MarketExposureCents,
		})
	}
	return out, nil
}

// Orders implements domain.ExchangeClient.
func (c *Client) Orders(ctx context.Context) ([]domain.OrderResult, error) {
	resp, err := c.sdk.GetOrders()
	if err != nil {
		return nil, err
	}
	out := make([]domain.OrderResult, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		out = append(out, domain.OrderResult{
			OrderID: o.OrderID,
			Ticker:  o.Ticker,
			Action:  domain.Action(o.Action),
			Side:    domain.Side(o.Side),
			Count:   o.Count,
			Status:  o.Status,
		})
	}
	return out, nil
}

// PlaceOrder implements domain.ExchangeClient.
func (c *Client) PlaceOrder(ctx context.Context, order domain.OrderRequest) (domain.OrderResult, error) {
	body := sdk.OrderRequestBody{
		Ticker:        order.Ticker,
		Action:        string(order.Action),
		Side:          string(order.Side),
		Count:         order.Count,
		Type:          string(order.Type),
		YesPriceCents: order.YesPriceCents,
		NoPriceCents:  order.NoPriceCents,
		ClientOrderID: order.ClientOrderID,
	}
	resp, err := c.sdk.PlaceOrder(body)
	if err != nil {
		return domain.OrderResult{}, err
	}
	return domain.OrderResult{
		OrderID: resp.Order.OrderID,
		Ticker:  resp.Order.Ticker,
		Action:  domain.Action(resp.Order.Action),
		Side:    domain.Side(resp.Order.Side),
		Count:   resp.Order.Count,
		Status:  resp.Order.Status,
	}, nil
}

// CancelOrder implements domain.ExchangeClient.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	return c.sdk.CancelOrder(orderID)
}
