package domain

// Chart is a render-agnostic description of a time-space diagram.
type Chart struct {
	RouteID   string       `json:"route_id"`
	RouteName string       `json:"route_name"`
	Loading   bool         `json:"loading"`
	Series    []Series     `json:"series"`
	Axes      AxisConfig   `json:"axes"`
	Summary   ChartSummary `json:"summary"`
}

// Series is one schedule's line on the chart.
type Series struct {
	ID         string        `json:"id"`
	Label      string        `json:"label"`
	Color      string        `json:"color"`
	Emphasized bool          `json:"emphasized"`
	Line       bool          `json:"line"` // false for single-point series
	Points     []SeriesPoint `json:"points"`

	// TooltipFormatter renders the clock time for an x value of this series.
	TooltipFormatter func(x float64) string `json:"-"`
}

// SeriesPoint is an x (minutes) / y (km) pair with its pre-rendered tooltip.
type SeriesPoint struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Label   string  `json:"label"`
	Tooltip string  `json:"tooltip"`
}

// AxisConfig describes both chart axes.
type AxisConfig struct {
	X Axis `json:"x"`
	Y Axis `json:"y"`
}

// Axis is a linear axis with optional labelled ticks.
type Axis struct {
	Scale string     `json:"scale"`
	Unit  string     `json:"unit"`
	Min   float64    `json:"min"`
	Max   float64    `json:"max"`
	Ticks []AxisTick `json:"ticks,omitempty"`
}

// AxisTick labels a position on an axis.
type AxisTick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// ChartSummary reports plotted vs. skipped schedules to the presentation layer.
type ChartSummary struct {
	Plotted int               `json:"plotted"`
	Failed  int               `json:"failed"`
	Notice  string            `json:"notice,omitempty"`
	Skipped []ScheduleFailure `json:"skipped,omitempty"`
}

// DiagramSummary is the event emitted after a diagram has been built.
type DiagramSummary struct {
	EventID     string `json:"event_id"`
	RouteID     string `json:"route_id"`
	Fingerprint string `json:"fingerprint"`
	Plotted     int    `json:"plotted"`
	Failed      int    `json:"failed"`
	Cached      bool   `json:"cached"`
}

// ScheduleChange announces that a route's schedules were written.
type ScheduleChange struct {
	EventID    string `json:"event_id"`
	RouteID    string `json:"route_id"`
	ScheduleID string `json:"schedule_id"`
	Version    int64  `json:"version"`
}
