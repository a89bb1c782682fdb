package catalog

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/videowall/server/internal/domain"
)

var (
	titlePrefixRe = regexp.MustCompile(`^([a-z]+)_`)
	firstIntRe    = regexp.MustCompile(`\d+`)
)

// presetOverrides pins an explicit playback order for presets where the
// derived sort does not match the produced footage order.
var presetOverrides = map[string][]string{
	"gwo": {"gwo_adult", "gwo_07", "gwo_08", "gwo_09"},
}

// Prefixes derives the available preset names from the catalog: the distinct
// lowercase title prefixes before the first underscore, sorted.
func Prefixes(videos []domain.Video) []string {
	set := make(map[string]struct{})
	for _, v := range videos {
		if m := titlePrefixRe.FindStringSubmatch(v.Title); m != nil {
			set[m[1]] = struct{}{}
		}
	}

	prefixes := maps.Keys(set)
	sort.Strings(prefixes)
	return prefixes
}

// SelectPreset returns the catalog videos belonging to a preset, in playback
// order: titles containing "adult" lead, the rest follow by the first integer
// in the title ascending. Presets with a pinned override order are rearranged
// to match it.
func SelectPreset(videos []domain.Video, prefix string) []domain.Video {
	var selected []domain.Video
	for _, v := range videos {
		if m := titlePrefixRe.FindStringSubmatch(v.Title); m != nil && m[1] == prefix {
			selected = append(selected, v)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		iAdult := strings.Contains(selected[i].Title, "adult")
		jAdult := strings.Contains(selected[j].Title, "adult")
		if iAdult != jAdult {
			return iAdult
		}
		return firstInt(selected[i].Title) < firstInt(selected[j].Title)
	})

	if order, ok := presetOverrides[prefix]; ok {
		rank := func(title string) int {
			for k, name := range order {
				if title == name {
					return k
				}
			}
			return len(order)
		}
		sort.SliceStable(selected, func(i, j int) bool {
			return rank(selected[i].Title) < rank(selected[j].Title)
		})
	}

	return selected
}

// firstInt extracts the first integer in a title; titles without digits sort
// as zero.
func firstInt(title string) int {
	m := firstIntRe.FindString(title)
	if m == "" {
		return 0
	}

	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
