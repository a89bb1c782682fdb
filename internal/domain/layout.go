package domain

import "fmt"

// Layout is the grid mode of a wall. The number of visible slots is a pure
// function of the layout.
type Layout string

const (
	Layout1x1 Layout = "1x1"
	Layout1x2 Layout = "1x2"
	Layout2x2 Layout = "2x2"
	Layout2x3 Layout = "2x3"
)

func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case Layout1x1, Layout1x2, Layout2x2, Layout2x3:
		return Layout(s), nil
	}
	return "", fmt.Errorf("unknown layout %q", s)
}

func (l Layout) SlotCount() int {
	switch l {
	case Layout1x1:
		return 1
	case Layout1x2:
		return 2
	case Layout2x2:
		return 4
	case Layout2x3:
		return 6
	}
	return 4
}
