package signal

import (
	"fmt"

	"github.com/wesleywang11/tpx-signal-watch/internal/indicator"
)

// BandTouchResult reports whether the latest bar reached the lower band.
type BandTouchResult struct {
	Touched bool
	Detail  string
}

// BandTouch checks whether the bar's low reached the lower Bollinger band.
// Touching the band exactly counts.
func BandTouch(snap *indicator.Snapshot) BandTouchResult {
	if snap.Low <= snap.Lower {
		return BandTouchResult{
			Touched: true,
			Detail:  fmt.Sprintf("touch: low %.2f <= band %.2f", snap.Low, snap.Lower),
		}
	}
	detail := "above band"
	if snap.Lower > 0 {
		detail = fmt.Sprintf("above band %.1f%%", (snap.Close-snap.Lower)/snap.Lower*100)
	}
	return BandTouchResult{Detail: detail}
}

// RSIReversalResult reports an oversold exit on the latest bar.
type RSIReversalResult struct {
	Reversed   bool
	InOversold bool
	Detail     string
}

// RSIReversal checks for a cross up through the oversold line: previous bar
// strictly below, current bar at or above.
func RSIReversal(snap *indicator.Snapshot, oversold float64) RSIReversalResult {
	switch {
	case snap.PrevRSI < oversold && snap.RSI >= oversold:
		return RSIReversalResult{
			Reversed: true,
			Detail:   fmt.Sprintf("reversal: rsi %.1f -> %.1f (recent low %.1f)", snap.PrevRSI, snap.RSI, snap.RSILow),
		}
	case snap.RSI < oversold:
		return RSIReversalResult{
			InOversold: true,
			Detail:     fmt.Sprintf("oversold: rsi %.1f", snap.RSI),
		}
	default:
		return RSIReversalResult{Detail: fmt.Sprintf("rsi %.1f", snap.RSI)}
	}
}

// MACDConfirmResult reports a bullish MACD event on the latest bar.
type MACDConfirmResult struct {
	Confirmed   bool
	GoldenCross bool
	HistFlip    bool
	Detail      string
}

// MACDConfirm checks for a golden cross (DIF crossing above DEA) or the
// histogram flipping non-negative. Either alone confirms.
func MACDConfirm(snap *indicator.Snapshot) MACDConfirmResult {
	goldenCross := snap.PrevDIF <= snap.PrevDEA && snap.DIF > snap.DEA
	histFlip := snap.PrevHist < 0 && snap.Hist >= 0
	switch {
	case goldenCross:
		return MACDConfirmResult{
			Confirmed:   true,
			GoldenCross: true,
			HistFlip:    histFlip,
			Detail:      fmt.Sprintf("golden cross: dif %.3f > dea %.3f", snap.DIF, snap.DEA),
		}
	case histFlip:
		return MACDConfirmResult{
			Confirmed: true,
			HistFlip:  true,
			Detail:    fmt.Sprintf("hist flip: %.3f -> %.3f", snap.PrevHist, snap.Hist),
		}
	case snap.DIF > snap.DEA:
		return MACDConfirmResult{Detail: fmt.Sprintf("dif %.3f above dea %.3f", snap.DIF, snap.DEA)}
	default:
		return MACDConfirmResult{Detail: fmt.Sprintf("dif %.3f below dea %.3f", snap.DIF, snap.DEA)}
	}
}
