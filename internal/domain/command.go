package domain

// Viewport is the visible region of the canvas on the issuing client.
type Viewport struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Command is one natural-language editing request. Immutable input.
type Command struct {
	Text         string
	CanvasID     int64
	SelectedIDs  []int64
	Viewport     *Viewport
	CurrentColor string
}

// Classification is a routing hint derived from command text. It steers the
// default provider choice and is never a correctness gate.
type Classification string

const (
	ClassFastPath    Classification = "fast_path"
	ClassComplexPath Classification = "complex_path"
)

// ExecuteOptions are per-command overrides for the orchestrator.
type ExecuteOptions struct {
	CurrentColor       string
	Viewport           *Viewport
	ProviderOverride   string
	SkipClassification bool
}
