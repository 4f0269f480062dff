package decision

import (
	"fmt"
	"strings"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/shopspring/decimal"
)

// FormatPrice renders a USD price with 2 decimals, or 6 for sub-dollar assets
func FormatPrice(price float64) string {
	places := int32(2)
	if price < 1 {
		places = 6
	}
	return "$" + decimal.NewFromFloat(price).StringFixed(places)
}

var advisoryTitles = map[models.Action]string{
	models.ActionStrongBuy:  "Strong buy opportunity",
	models.ActionBuy:        "Buy opportunity",
	models.ActionHold:       "Hold and monitor",
	models.ActionSell:       "Consider reducing exposure",
	models.ActionStrongSell: "Exit signal",
}

// Advise renders the advisory panel for a decision
func Advise(d models.Decision, s models.Snapshot) models.Advisory {
	s = s.Sanitize()
	name := s.Name
	if name == "" {
		name = strings.ToUpper(s.Symbol)
	}

	adv := models.Advisory{
		Title: advisoryTitles[d.Action],
		Summary: fmt.Sprintf("%s scores %.1f/100 at %s. Recommendation: %s with %.0f%% confidence over %s.",
			name, d.Score, FormatPrice(s.CurrentPrice), strings.ReplaceAll(string(d.Action), "_", " "), d.Confidence, d.Timeframe),
	}

	switch {
	case d.Action.IsBuy():
		adv.ActionPoints = []string{
			fmt.Sprintf("Entry near %s", FormatPrice(s.CurrentPrice)),
			fmt.Sprintf("Place stop loss at %s", FormatPrice(d.StopLoss)),
			fmt.Sprintf("Take profit near %s (%+.0f%%)", FormatPrice(d.TargetPrice), d.ExpectedReturn),
		}
	case d.Action == models.ActionHold:
		adv.ActionPoints = []string{
			"Keep current position size",
			fmt.Sprintf("Review if price falls below %s", FormatPrice(d.StopLoss)),
			fmt.Sprintf("Reassess above %s", FormatPrice(d.TargetPrice)),
		}
	default:
		adv.ActionPoints = []string{
			"Reduce or close open positions",
			fmt.Sprintf("Downside target near %s", FormatPrice(d.TargetPrice)),
			fmt.Sprintf("Thesis invalidated above %s", FormatPrice(d.StopLoss)),
		}
	}

	adv.RiskNotes = append(adv.RiskNotes, fmt.Sprintf("Risk level: %s", d.RiskLevel))
	if v := Volatility(&s); v > 10 {
		adv.RiskNotes = append(adv.RiskNotes, fmt.Sprintf("High intraday volatility (%.1f%% range)", v))
	}
	if ratio, ok := s.VolumeToMarketCap(); !ok {
		adv.RiskNotes = append(adv.RiskNotes, "Market cap unknown, volume signals are inconclusive")
	} else if ratio < 0.05 {
		adv.RiskNotes = append(adv.RiskNotes, "Thin trading volume may widen spreads")
	}
	if !s.HasRank() || s.MarketCapRank > 100 {
		adv.RiskNotes = append(adv.RiskNotes, "Smaller or unranked asset, size positions conservatively")
	}
	return adv
}
