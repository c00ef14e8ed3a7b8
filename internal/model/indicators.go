package model

// Summary condenses a run into the figures shown next to the tables.
type Summary struct {
	LastClose    float64 `json:"last_close"`
	ChangePct    float64 `json:"change_pct"` // last close vs previous close
	High52w      float64 `json:"high_52w"`
	Low52w       float64 `json:"low_52w"`
	Position52w  float64 `json:"position_52w"` // 0.0 ~ 1.0
	SMA50        float64 `json:"sma_50"`
	SMA200       float64 `json:"sma_200"`
	RSI14        float64 `json:"rsi_14"`
	HorizonDate  string  `json:"horizon_date"`
	HorizonValue float64 `json:"horizon_value"`
	HorizonLower float64 `json:"horizon_lower"`
	HorizonUpper float64 `json:"horizon_upper"`
	ExpectedMove float64 `json:"expected_move_pct"` // horizon value vs last close
}
