package paper

import (
	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/journal"
)

// Positions aggregates open paper_trades rows into per-ticker net exposure,
// per §3/§4.6: position = Σyes − Σno, exposure = Σ(price × contracts).
func Positions(repo *journal.TradeRepository) ([]domain.Position, error) {
	open, err := repo.AllOpen()
	if err != nil {
		return nil, err
	}

	type agg struct {
		qty      int
		exposure int64
	}
	byTicker := make(map[string]*agg)

	for _, t := range open {
		a, ok := byTicker[t.Ticker]
		if !ok {
			a = &agg{}
			byTicker[t.Ticker] = a
		}
		cost := int64(t.EntryPriceCents) * int64(t.Contracts)
		if t.Side == domain.SideYes {
			a.qty += t.Contracts
		} else {
			a.qty -= t.Contracts
		}
		a.exposure += cost
	}

	out := make([]domain.Position, 0, len(byTicker))
	for ticker, a := range byTicker {
		out = append(out, domain.Position{
			Ticker:              ticker,
			PositionQtySigned:   a.qty,
			MarketExposureCents: a.exposure,
		})
	}
	return out, nil
}

// OpenExposureCents sums cost basis across every open row, used by the
// risk gate's capital cap in paper mode.
func OpenExposureCents(repo *journal.TradeRepository) (int64, error) {
	open, err := repo.AllOpen()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, t := range open {
		total += int64(t.EntryPriceCents) * int64(t.Contracts)
	}
	return total, nil
}
