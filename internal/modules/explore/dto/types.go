package dto

type CandidateOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

type VisibleNodeOutput struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	State      string  `json:"state"`
	Opacity    float64 `json:"opacity"`
	WasClicked bool    `json:"was_clicked"`
}

type EdgeOutput struct {
	A      string  `json:"a"`
	B      string  `json:"b"`
	Weight float64 `json:"weight"`
}

type StateOutput struct {
	Visible      []VisibleNodeOutput `json:"visible"`
	Edges        []EdgeOutput        `json:"edges"`
	Trail        []string            `json:"trail"`
	TrailDisplay []string            `json:"trail_display"`
}

type SearchOutput struct {
	Found    bool            `json:"found"`
	Selected CandidateOutput `json:"selected"`
}
