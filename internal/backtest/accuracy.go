package backtest

import (
	"math"
	"sort"
	"time"

	"github.com/kalshiwx/sentinel/internal/domain"
	"github.com/kalshiwx/sentinel/internal/journal"
)

// CityAccuracy reports settlement-error statistics for one city, per
// backtest_advanced.py's per_city_accuracy.
type CityAccuracy struct {
	City         string
	Samples      int
	MAEf         float64
	RMSEf        float64
	BiasF        float64
	CurrentSigma float64
	OptimalSigma float64
}

// PerCityAccuracy scores every configured city's settled predictions since
// `since` against its currently-configured sigma, recommending a new sigma
// equal to the observed RMSE (the maximum-likelihood sigma under a Gaussian
// settlement model, exactly as the original computes it).
func PerCityAccuracy(predictions *journal.PredictionRepository, cities []string, currentSigma map[string]float64, since time.Time) ([]CityAccuracy, error) {
	var out []CityAccuracy
	for _, city := range cities {
		var errs []float64
		for _, mt := range []domain.MarketType{domain.MarketTypeHigh, domain.MarketTypeLow} {
			preds, err := predictions.SettledSince(city, mt, since)
			if err != nil {
				return nil, err
			}
			for _, p := range preds {
				if p.ErrorF != nil {
					errs = append(errs, *p.ErrorF)
				}
			}
		}
		if len(errs) == 0 {
			continue
		}
		out = append(out, CityAccuracy{
			City:         city,
			Samples:      len(errs),
			MAEf:         meanAbsF(errs),
			RMSEf:        rmse(errs),
			BiasF:        mean(errs),
			CurrentSigma: currentSigma[city],
			OptimalSigma: rmse(errs),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out, nil
}

func meanAbsF(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range xs {
		sum += math.Abs(v)
	}
	return sum / float64(len(xs))
}

func rmse(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range xs {
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}
