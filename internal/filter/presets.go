package filter

import (
	"sort"
	"strings"
)

// RomaniaCriteria targets internships and entry-level tech roles in Romanian cities.
func RomaniaCriteria() Criteria {
	return Criteria{
		Keywords: []string{
			"Intern", "Internship", "Student", "Trainee", "Graduate Program", "Student Program",
			"Developer", "Software", "Programming", "Engineer", "Development", "IT", "Tech",
			"Application", "Web", "Mobile", "Full Stack", "Frontend", "Backend", "DevOps", "QA",
		},
		Locations: []string{
			"Bucharest", "București", "Cluj-Napoca", "Cluj", "Timișoara", "Iași",
			"Brașov", "Constanța", "Remote", "Hybrid", "Romania",
		},
		IncludeUnspecifiedLocations: true,
		MaxDaysOld:                  30,
		Strategy:                    StrategySubstring,
	}
}

// RemoteCriteria targets remote software roles anywhere.
func RemoteCriteria() Criteria {
	return Criteria{
		Keywords: []string{
			"Developer", "Software Engineer", "Programmer", "Backend", "Frontend",
			"Full Stack", "DevOps", "SRE", "Golang", "Python",
		},
		Locations:                   []string{"Remote", "Anywhere", "Worldwide"},
		IncludeUnspecifiedLocations: true,
		MaxDaysOld:                  14,
		Strategy:                    StrategySubstring,
	}
}

var presets = map[string]func() Criteria{
	"romania": RomaniaCriteria,
	"remote":  RemoteCriteria,
}

// Preset returns the named preset. Each call builds new slices.
func Preset(name string) (Criteria, bool) {
	fn, ok := presets[strings.ToLower(name)]
	if !ok {
		return Criteria{}, false
	}
	return fn(), true
}

// PresetNames lists the available presets, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
