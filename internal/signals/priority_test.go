package signals

import (
	"testing"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPostFilter_DropsCheapNoAndCheapYes(t *testing.T) {
	sigs := []domain.Signal{
		{Side: domain.SideNo, MarketYesPriceCents: 5},
		{Side: domain.SideNo, MarketYesPriceCents: 15},
		{Side: domain.SideYes, SuggestedPriceCents: 40},
		{Side: domain.SideYes, SuggestedPriceCents: 60},
	}

	out := PostFilter(sigs)

	assert.Len(t, out, 2)
	assert.Equal(t, 15, out[0].MarketYesPriceCents)
	assert.Equal(t, 60, out[1].SuggestedPriceCents)
}

func TestSortByPriority_CheapNoRanksAboveHighYes(t *testing.T) {
	sigs := []domain.Signal{
		{City: "austin", Side: domain.SideYes, SuggestedPriceCents: 85},
		{City: "austin", Side: domain.SideNo, MarketYesPriceCents: 20},
	}

	SortByPriority(sigs, nil)

	assert.Equal(t, domain.SideNo, sigs[0].Side)
}

func TestSortByPriority_PreferredCityBoostsScore(t *testing.T) {
	sigs := []domain.Signal{
		{City: "austin", Side: domain.SideYes, SuggestedPriceCents: 85},
		{City: "nyc", Side: domain.SideYes, SuggestedPriceCents: 85},
	}
	preferred := map[string]bool{"nyc": true}

	SortByPriority(sigs, preferred)

	assert.Equal(t, "nyc", sigs[0].City)
}
