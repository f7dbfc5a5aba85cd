package agreement

import (
	"fmt"
	"sort"
	"strconv"
)

// Missing marks an abstention. It is never counted as a category.
const Missing = ""

// Categories is the ordered, de-duplicated set of labels observed in a Set.
type Categories struct {
	labels []string
	index  map[string]int
}

func newCategories(labels []string) Categories {
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	return Categories{labels: labels, index: index}
}

// Len returns the number of categories.
func (c Categories) Len() int {
	return len(c.labels)
}

// Labels returns a copy of the category labels in index order.
func (c Categories) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Label returns the label at index i.
func (c Categories) Label(i int) string {
	return c.labels[i]
}

// Index returns the index of label and whether it is a known category.
func (c Categories) Index(label string) (int, bool) {
	i, ok := c.index[label]
	return i, ok
}

// Registry derives the category set from every annotator's labels.
// When order is non-empty it fixes the category order; otherwise labels are sorted
// numerically when all of them parse as numbers, lexicographically when not.
func Registry(labels [][]string, order []string) (Categories, error) {
	seen := map[string]struct{}{}
	var observed []string
	for _, seq := range labels {
		for _, l := range seq {
			if l == Missing {
				continue
			}
			if _, ok := seen[l]; ok {
				continue
			}
			seen[l] = struct{}{}
			observed = append(observed, l)
		}
	}

	if len(order) > 0 {
		return orderedCategories(observed, order)
	}
	if len(observed) == 0 {
		return Categories{}, ErrNoCategories
	}
	sortLabels(observed)
	return newCategories(observed), nil
}

func orderedCategories(observed, order []string) (Categories, error) {
	labels := make([]string, 0, len(order))
	dedup := make(map[string]struct{}, len(order))
	for _, l := range order {
		if l == Missing {
			continue
		}
		if _, ok := dedup[l]; ok {
			continue
		}
		dedup[l] = struct{}{}
		labels = append(labels, l)
	}
	for _, l := range observed {
		if _, ok := dedup[l]; !ok {
			return Categories{}, fmt.Errorf("%w: %q", ErrUnknownCategory, l)
		}
	}
	if len(labels) == 0 {
		return Categories{}, ErrNoCategories
	}
	return newCategories(labels), nil
}

func sortLabels(labels []string) {
	nums := make(map[string]float64, len(labels))
	numeric := true
	for _, l := range labels {
		v, err := strconv.ParseFloat(l, 64)
		if err != nil {
			numeric = false
			break
		}
		nums[l] = v
	}
	if !numeric {
		sort.Strings(labels)
		return
	}
	sort.Slice(labels, func(i, j int) bool {
		if nums[labels[i]] == nums[labels[j]] {
			return labels[i] < labels[j]
		}
		return nums[labels[i]] < nums[labels[j]]
	})
}
