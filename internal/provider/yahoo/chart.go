package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"stockfolio/internal/provider"
)

// JSONPath expressions into the v8 chart payload. Every metadata attribute is
// looked up on its own so a missing one never hides the others.
const (
	pathMeta          = "$.chart.result[0].meta"
	pathErrorCode     = "$.chart.error.code"
	pathPrice         = pathMeta + ".regularMarketPrice"
	pathCurrency      = pathMeta + ".currency"
	pathShortName     = pathMeta + ".shortName"
	pathLongName      = pathMeta + ".longName"
	pathExchange      = pathMeta + ".exchangeName"
	pathPreviousClose = pathMeta + ".previousClose"
	pathChartPrevious = pathMeta + ".chartPreviousClose"
	pathDayHigh       = pathMeta + ".regularMarketDayHigh"
	pathDayLow        = pathMeta + ".regularMarketDayLow"
	pathMarketCap     = pathMeta + ".marketCap"
	pathSector        = pathMeta + ".sector"
)

// Fetch retrieves the current quote for symbol from the chart endpoint.
//
// A 404, a "Not Found" error body, an empty result or a missing price yield
// provider.ErrSymbolNotFound. Transport failures, rate limiting, 5xx and
// undecodable bodies yield a *provider.Error.
func (c *Client) Fetch(ctx context.Context, symbol string) (provider.Quote, error) {
	symbol = provider.NormalizeSymbol(symbol)
	if symbol == "" {
		return provider.Quote{}, fmt.Errorf("%w: empty symbol", provider.ErrSymbolNotFound)
	}
	fail := func(err error) (provider.Quote, error) {
		return provider.Quote{}, &provider.Error{Provider: Name, Symbol: symbol, Err: err}
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), c.query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fail(fmt.Errorf("creating request: %w", err))
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("performing request: %w", err))
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusNotFound:
		return provider.Quote{}, fmt.Errorf("%w: %s", provider.ErrSymbolNotFound, symbol)

	case http.StatusTooManyRequests:
		return fail(fmt.Errorf("rate limited"))

	case http.StatusUnauthorized, http.StatusForbidden:
		return fail(fmt.Errorf("unauthorized"))

	default:
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<10))
		return fail(fmt.Errorf("unexpected status code: %d: %s", res.StatusCode, strings.TrimSpace(string(b))))
	}

	var body any
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return fail(fmt.Errorf("decoding chart response: %w", err))
	}

	if code, ok := lookupString(body, pathErrorCode); ok {
		if strings.EqualFold(code, "Not Found") {
			return provider.Quote{}, fmt.Errorf("%w: %s", provider.ErrSymbolNotFound, symbol)
		}
		return fail(fmt.Errorf("chart error: %s", code))
	}
	if _, err := jsonpath.Get(pathMeta, body); err != nil {
		return provider.Quote{}, fmt.Errorf("%w: %s: no result", provider.ErrSymbolNotFound, symbol)
	}

	price, ok := lookupDecimal(body, pathPrice)
	if !ok || !price.IsPositive() {
		return provider.Quote{}, fmt.Errorf("%w: %s: no price", provider.ErrSymbolNotFound, symbol)
	}

	q := provider.Quote{
		Symbol:    symbol,
		Price:     price,
		Currency:  "USD",
		Source:    Name,
		FetchedAt: time.Now().UTC(),
	}
	if cur, ok := lookupString(body, pathCurrency); ok {
		q.Currency = strings.ToUpper(cur)
	}
	if name, ok := lookupString(body, pathShortName); ok {
		q.Name = &name
	} else if name, ok := lookupString(body, pathLongName); ok {
		q.Name = &name
	}
	if ex, ok := lookupString(body, pathExchange); ok {
		q.Exchange = &ex
	}
	if v, ok := lookupDecimal(body, pathPreviousClose); ok {
		q.PreviousClose = &v
	} else if v, ok := lookupDecimal(body, pathChartPrevious); ok {
		q.PreviousClose = &v
	}
	if v, ok := lookupDecimal(body, pathDayHigh); ok {
		q.DayHigh = &v
	}
	if v, ok := lookupDecimal(body, pathDayLow); ok {
		q.DayLow = &v
	}
	if v, ok := lookupDecimal(body, pathMarketCap); ok {
		q.MarketCap = &v
	}
	if s, ok := lookupString(body, pathSector); ok {
		q.Sector = &s
	}
	return q, nil
}

func lookupString(body any, path string) (string, bool) {
	v, err := jsonpath.Get(path, body)
	if err != nil || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func lookupDecimal(body any, path string) (decimal.Decimal, bool) {
	v, err := jsonpath.Get(path, body)
	if err != nil || v == nil {
		return decimal.Zero, false
	}
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case float64:
		return decimal.NewFromFloat(n), true
	}
	return decimal.Zero, false
}
