package polymarket

import (
	"encoding/json"
	"testing"
)

func TestAPIMarketDecode(t *testing.T) {
	raw := `{
		"id": "514213",
		"question": "Will it rain tomorrow?",
		"slug": "will-it-rain-tomorrow",
		"active": "true",
		"closed": false,
		"outcomes": "[\"Yes\", \"No\"]",
		"clobTokenIds": "[\"111\", \"222\"]",
		"liquidityNum": 12345.67,
		"negRisk": false
	}`

	var m APIMarket
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !m.Tradeable() {
		t.Error("market should be tradeable")
	}

	bm, err := m.ToBinaryMarket()
	if err != nil {
		t.Fatalf("ToBinaryMarket: %v", err)
	}
	if bm.YesTokenID != "111" || bm.NoTokenID != "222" {
		t.Errorf("tokens = %s/%s, want 111/222", bm.YesTokenID, bm.NoTokenID)
	}
	if bm.Liquidity != 12345.67 {
		t.Errorf("liquidity = %v, want 12345.67", bm.Liquidity)
	}
}

func TestAPIMarketStringLiquidityFallback(t *testing.T) {
	raw := `{"id": "1", "liquidity": "999.5", "clobTokenIds": "[\"a\",\"b\"]", "active": true}`
	var m APIMarket
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := m.LiquidityUSD(); got != 999.5 {
		t.Errorf("liquidity = %v, want 999.5", got)
	}
}

func TestAPIEventToNegRiskEvent(t *testing.T) {
	raw := `{
		"id": "evt-9",
		"title": "Who wins the nomination?",
		"slug": "who-wins",
		"negRisk": true,
		"active": true,
		"closed": false,
		"markets": [
			{"id": "m1", "question": "Candidate A wins?", "groupItemTitle": "Candidate A",
			 "active": true, "closed": false, "clobTokenIds": "[\"a-yes\",\"a-no\"]", "liquidityNum": 4000},
			{"id": "m2", "question": "Candidate B wins?", "groupItemTitle": "Candidate B",
			 "active": true, "closed": false, "clobTokenIds": "[\"b-yes\",\"b-no\"]", "liquidityNum": 6000},
			{"id": "m3", "question": "Candidate C wins?",
			 "active": true, "closed": true, "clobTokenIds": "[\"c-yes\",\"c-no\"]"}
		]
	}`

	var e APIEvent
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ev, err := e.ToNegRiskEvent()
	if err != nil {
		t.Fatalf("ToNegRiskEvent: %v", err)
	}
	// The closed market is dropped.
	if len(ev.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(ev.Outcomes))
	}
	if ev.Outcomes[0].TokenID != "a-yes" {
		t.Errorf("outcome token = %q, want a-yes", ev.Outcomes[0].TokenID)
	}
	if ev.Outcomes[0].Name != "Candidate A" {
		t.Errorf("outcome name = %q, want group item title", ev.Outcomes[0].Name)
	}
	if ev.TotalLiquidity() != 10000 {
		t.Errorf("total liquidity = %v, want 10000", ev.TotalLiquidity())
	}
}

func TestAPIPriceValue(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{`{"price": "0.48"}`, 0.48, true},
		{`{"price": ""}`, 0, false},
		{`{"price": "0"}`, 0, false},
	}
	for _, tt := range tests {
		var p APIPrice
		if err := json.Unmarshal([]byte(tt.raw), &p); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.raw, err)
		}
		got, ok := p.Value()
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("%s: Value() = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}
