package core

import (
	"math/rand/v2"
	"strconv"
)

// HueSource returns a value in [0, 1) used to pick a chart colour.
type HueSource func() float64

// Chart is the data handed to the pie chart widget.
type Chart struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors"`
}

// BuildChart projects category totals into chart series. Every call draws new
// colours, they are not stable across redraws. A nil hue uses math/rand/v2.
func BuildChart(expenses []Expense, hue HueSource) Chart {
	if hue == nil {
		hue = rand.Float64
	}
	totals := CategoryTotals(expenses)
	c := Chart{
		Labels: make([]string, 0, len(totals)),
		Values: make([]float64, 0, len(totals)),
		Colors: make([]string, 0, len(totals)),
	}
	for _, t := range totals {
		c.Labels = append(c.Labels, t.Name)
		c.Values = append(c.Values, t.Amount.Float())
		c.Colors = append(c.Colors, hslColor(hue()*360))
	}
	return c
}

func hslColor(h float64) string {
	return "hsl(" + strconv.FormatFloat(h, 'f', -1, 64) + ",70%,60%)"
}
