package pricing

import (
	"fmt"
	"math"

	"github.com/cmalloy/options-desk/src/models"
)

// Black-Scholes closed forms for European options. Pure computation: no
// state, no I/O, safe to call from any goroutine.

func normCdf(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func normPdf(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

func validate(s, k, t, sigma float64, optionType models.OptionType) error {
	if s <= 0 {
		return models.NewInvalidInputError(fmt.Sprintf("spot price must be positive, got %v", s))
	}

	if k <= 0 {
		return models.NewInvalidInputError(fmt.Sprintf("strike must be positive, got %v", k))
	}

	if t <= 0 {
		return models.NewInvalidInputError(fmt.Sprintf("time to expiry must be positive, got %v", t))
	}

	if sigma <= 0 {
		return models.NewInvalidInputError(fmt.Sprintf("volatility must be positive, got %v", sigma))
	}

	return optionType.Validate()
}

func d1d2(s, k, t, r, sigma float64) (float64, float64) {
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	d2 := d1 - sigma*math.Sqrt(t)
	return d1, d2
}

// Price computes the Black-Scholes fair value of a European call or put.
func Price(s, k, t, r, sigma float64, optionType models.OptionType) (float64, error) {
	if err := validate(s, k, t, sigma, optionType); err != nil {
		return 0, err
	}

	d1, d2 := d1d2(s, k, t, r, sigma)

	if optionType == models.Call {
		return s*normCdf(d1) - k*math.Exp(-r*t)*normCdf(d2), nil
	}

	return k*math.Exp(-r*t)*normCdf(-d2) - s*normCdf(-d1), nil
}

// Greeks computes delta, gamma, theta, vega and rho. Vega and rho are scaled
// per 1 percentage point change (divided by 100) to match practitioner
// convention and the historical records already stored. Theta is per year.
func Greeks(s, k, t, r, sigma float64, optionType models.OptionType) (models.Greeks, error) {
	if err := validate(s, k, t, sigma, optionType); err != nil {
		return models.Greeks{}, err
	}

	d1, d2 := d1d2(s, k, t, r, sigma)

	gamma := normPdf(d1) / (s * sigma * math.Sqrt(t))
	vega := s * normPdf(d1) * math.Sqrt(t)

	var delta, theta, rho float64
	if optionType == models.Call {
		delta = normCdf(d1)
		theta = -(s*normPdf(d1)*sigma)/(2*math.Sqrt(t)) - r*k*math.Exp(-r*t)*normCdf(d2)
		rho = k * t * math.Exp(-r*t) * normCdf(d2)
	} else {
		delta = normCdf(d1) - 1
		theta = -(s*normPdf(d1)*sigma)/(2*math.Sqrt(t)) + r*k*math.Exp(-r*t)*normCdf(-d2)
		rho = -k * t * math.Exp(-r*t) * normCdf(-d2)
	}

	return models.Greeks{
		Delta: delta,
		Gamma: gamma,
		Theta: theta,
		Vega:  vega / 100,
		Rho:   rho / 100,
	}, nil
}
