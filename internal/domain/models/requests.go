package models

// BlueprintsRequest filters a one-shot scan over the current working set.
type BlueprintsRequest struct {
	Blueprint  string `query:"blueprint"`
	Confidence string `query:"confidence" validate:"omitempty,oneof=High Medium Low"`
	Sort       string `query:"sort" default:"volume" validate:"omitempty,oneof=symbol price change volume confidence"`
	Limit      int    `query:"limit" default:"50" validate:"gte=1,lte=500"`
}

// TopSymbolsRequest selects the n most traded symbols.
type TopSymbolsRequest struct {
	N int `query:"n" default:"20" validate:"gte=1,lte=200"`
}
