package trainload

// FormThresholds are the lower bounds (exclusive) of each form band, highest
// first. A form value above VeryFresh is "Very Fresh", above Fresh is "Fresh",
// and so on down to "Overreaching" at or below VeryTired.
type FormThresholds struct {
	VeryFresh float64 `toml:"very_fresh" json:"very_fresh"`
	Fresh     float64 `toml:"fresh" json:"fresh"`
	Optimal   float64 `toml:"optimal" json:"optimal"`
	Tired     float64 `toml:"tired" json:"tired"`
	VeryTired float64 `toml:"very_tired" json:"very_tired"`
}

// DefaultFormThresholds returns the 25/5/-10/-25/-40 banding.
func DefaultFormThresholds() FormThresholds {
	return FormThresholds{
		VeryFresh: 25,
		Fresh:     5,
		Optimal:   -10,
		Tired:     -25,
		VeryTired: -40,
	}
}

// FormStatus is the qualitative reading of a form value.
type FormStatus struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Color string `json:"color"`
	// RiskNote is nil for the fresh and optimal bands.
	RiskNote *string `json:"risk_note"`
	// Advisory is a softer hint shown alongside bands without a risk note.
	Advisory string `json:"advisory,omitempty"`
}

type formBand struct {
	key      string
	label    string
	color    string
	risk     string
	advisory string
}

var formBands = [...]formBand{
	{key: "very_fresh", label: "Very Fresh", color: "#4a9eff", advisory: "Undertraining risk"},
	{key: "fresh", label: "Fresh", color: "#00c896"},
	{key: "optimal", label: "Optimal", color: "#c8f000"},
	{key: "tired", label: "Tired", color: "#ff7a00", risk: "Accumulating fatigue"},
	{key: "very_tired", label: "Very Tired", color: "#ff3b3b", risk: "Recovery needed"},
	{key: "overreaching", label: "Overreaching", color: "#cc00ff", risk: "Back off immediately"},
}

// Classifier maps form values onto the six bands.
type Classifier struct {
	t FormThresholds
}

// NewClassifier returns a Classifier using t.
func NewClassifier(t FormThresholds) Classifier {
	return Classifier{t: t}
}

// Thresholds returns the band bounds in use.
func (c Classifier) Thresholds() FormThresholds {
	return c.t
}

// Classify returns the band for form. Bands are checked from the top and the
// first match wins; NaN falls through to the lowest band.
func (c Classifier) Classify(form float64) FormStatus {
	var b formBand
	switch {
	case form > c.t.VeryFresh:
		b = formBands[0]
	case form > c.t.Fresh:
		b = formBands[1]
	case form > c.t.Optimal:
		b = formBands[2]
	case form > c.t.Tired:
		b = formBands[3]
	case form > c.t.VeryTired:
		b = formBands[4]
	default:
		b = formBands[5]
	}

	status := FormStatus{
		Key:      b.key,
		Label:    b.label,
		Color:    b.color,
		Advisory: b.advisory,
	}
	if b.risk != "" {
		risk := b.risk
		status.RiskNote = &risk
	}
	return status
}

// ClassifyForm classifies form with the default thresholds.
func ClassifyForm(form float64) FormStatus {
	return NewClassifier(DefaultFormThresholds()).Classify(form)
}
