package scoring

// ChartLabels are the bar labels, in Groups order.
var ChartLabels = [4]string{"Threat Agent", "Vulnerability Factors", "Technical Impact", "Business Impact"}

// ChartSeries is the input for a bar chart renderer: four values in [0, 10].
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Chart returns the display values for rendering.
func (r ScoreResult) Chart() ChartSeries {
	s := ChartSeries{
		Labels: append([]string(nil), ChartLabels[:]...),
		Values: make([]float64, len(r.Groups)),
	}
	for i, g := range r.Groups {
		s.Values[i] = g.Display
	}
	return s
}
