package recipe

import "strings"

// SectionPrefix marks a directions entry as a group header rather than a step.
const SectionPrefix = "__SECTION__"

// Section returns the directions entry for a group header named name.
func Section(name string) string {
	return SectionPrefix + name
}

// IsSection reports whether entry is a group header.
func IsSection(entry string) bool {
	return strings.HasPrefix(entry, SectionPrefix)
}

// SectionTitle returns the header text of a section entry.
func SectionTitle(entry string) string {
	return strings.TrimPrefix(entry, SectionPrefix)
}

// StepNumbers returns the display number for each directions entry. Section
// headers get 0 and do not advance the count.
func StepNumbers(directions []string) []int {
	numbers := make([]int, len(directions))
	n := 0
	for i, d := range directions {
		if IsSection(d) {
			continue
		}
		n++
		numbers[i] = n
	}
	return numbers
}
