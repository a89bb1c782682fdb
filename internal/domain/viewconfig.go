package domain

// ViewConfig is a named wall arrangement: the layout plus which catalog video
// (by id) sits in each slot. Nil means the slot was empty when saved.
type ViewConfig struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	ViewMode Layout `json:"view_mode"`
	Slots    []*int `json:"slots"`
}
