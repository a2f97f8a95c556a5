package portfolio

import "strings"

// TradingViewSymbol builds the EXCHANGE:SYMBOL form used by TradingView
// widgets from a Yahoo exchange code. Unknown codes pass through.
func TradingViewSymbol(exchange, symbol string) string {
	ex := strings.ToUpper(strings.TrimSpace(exchange))
	switch ex {
	case "", "N/A", "NMS", "NGM", "NCM":
		ex = "NASDAQ"
	case "NYQ", "NYS":
		ex = "NYSE"
	}
	return ex + ":" + symbol
}
