package polymarket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether a flag is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or a numeric string. Gamma sends
// liquidity and volume both ways depending on the endpoint.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(n)
	return nil
}

// stringList unmarshals Gamma's doubly-encoded arrays: the field is a JSON
// string whose content is itself a JSON array, e.g. "[\"123\",\"456\"]".
// A plain array is accepted too.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var direct []string
	if err := json.Unmarshal(data, &direct); err == nil {
		*l = direct
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*l = nil
		return nil
	}
	var nested []string
	if err := json.Unmarshal([]byte(s), &nested); err != nil {
		return err
	}
	*l = nested
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID             string     `json:"id"`
	Question       string     `json:"question"`
	Slug           string     `json:"slug"`
	ConditionID    string     `json:"conditionId"`
	Active         flexBool   `json:"active"`
	Closed         flexBool   `json:"closed"`
	Outcomes       stringList `json:"outcomes"`
	ClobTokenIDs   stringList `json:"clobTokenIds"`
	Liquidity      flexFloat  `json:"liquidityNum"`
	LiquidityRaw   flexFloat  `json:"liquidity"`
	Volume         flexFloat  `json:"volumeNum"`
	NegRisk        bool       `json:"negRisk"`
	Category       string     `json:"category"`
	GroupItemTitle string     `json:"groupItemTitle"`
	EndDateISO     string     `json:"endDateIso"`
}

// LiquidityUSD returns market liquidity, preferring the numeric field over
// the string-encoded one.
func (m *APIMarket) LiquidityUSD() float64 {
	if m.Liquidity > 0 {
		return float64(m.Liquidity)
	}
	return float64(m.LiquidityRaw)
}

// Tradeable reports whether the market is open with an order book attached.
func (m *APIMarket) Tradeable() bool {
	return bool(m.Active) && !bool(m.Closed) && len(m.ClobTokenIDs) == 2
}

// ToBinaryMarket converts a Gamma market to a domain.BinaryMarket. The first
// CLOB token is the YES side, the second NO, matching the outcomes order.
func (m *APIMarket) ToBinaryMarket() (domain.BinaryMarket, error) {
	if len(m.ClobTokenIDs) != 2 {
		return domain.BinaryMarket{}, fmt.Errorf("market %s: %d clob tokens, want 2", m.ID, len(m.ClobTokenIDs))
	}
	return domain.BinaryMarket{
		ID:         m.ID,
		Question:   m.Question,
		Slug:       m.Slug,
		YesTokenID: m.ClobTokenIDs[0],
		NoTokenID:  m.ClobTokenIDs[1],
		Liquidity:  m.LiquidityUSD(),
		Category:   m.Category,
	}, nil
}

// YesTokenID returns the market's YES-side CLOB token, or "" when the token
// pair is missing.
func (m *APIMarket) YesTokenID() string {
	if len(m.ClobTokenIDs) == 0 {
		return ""
	}
	return m.ClobTokenIDs[0]
}

// OutcomeName returns the market's label inside a grouped event, falling
// back to the full question.
func (m *APIMarket) OutcomeName() string {
	if m.GroupItemTitle != "" {
		return m.GroupItemTitle
	}
	return m.Question
}

// APIEvent represents an event as returned by the Polymarket Gamma API.
// An event groups one or more related markets.
type APIEvent struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Slug      string      `json:"slug"`
	Active    flexBool    `json:"active"`
	Closed    flexBool    `json:"closed"`
	NegRisk   bool        `json:"negRisk"`
	Liquidity flexFloat   `json:"liquidity"`
	Markets   []APIMarket `json:"markets"`
}

// ToNegRiskEvent converts a Gamma event to a domain.NegRiskEvent. Each
// tradeable member market contributes its YES token as one outcome; member
// markets without a token pair are dropped.
func (e *APIEvent) ToNegRiskEvent() (domain.NegRiskEvent, error) {
	ev := domain.NegRiskEvent{
		ID:    e.ID,
		Title: e.Title,
		Slug:  e.Slug,
	}
	for i := range e.Markets {
		m := &e.Markets[i]
		if !m.Tradeable() {
			continue
		}
		ev.Outcomes = append(ev.Outcomes, domain.EventOutcome{
			MarketID:  m.ID,
			TokenID:   m.YesTokenID(),
			Name:      m.OutcomeName(),
			Liquidity: m.LiquidityUSD(),
		})
	}
	if len(ev.Outcomes) == 0 {
		return domain.NegRiskEvent{}, fmt.Errorf("event %s: no tradeable outcomes", e.ID)
	}
	return ev, nil
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIPrice is the response of the CLOB /price endpoint.
type APIPrice struct {
	Price string `json:"price"`
}

// Value parses the price string; the endpoint returns "" for an empty book.
func (p *APIPrice) Value() (float64, bool) {
	if p.Price == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(p.Price, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
