package config

import "sort"

// Preset bundles the presentation options of one rendering style.
type Preset struct {
	Theme       string
	Labels      string
	CounterStep int
	Interpolate bool
	Description string
}

var Presets = map[string]Preset{
	"classic":  {Theme: ThemeLight, Labels: LabelsOff, CounterStep: 1, Interpolate: true, Description: "white board, plain markers, +1 per event"},
	"dark":     {Theme: ThemeDark, Labels: LabelsIndex, CounterStep: 1, Interpolate: true, Description: "dark board, numbered markers"},
	"numbered": {Theme: ThemeLight, Labels: LabelsIndex, CounterStep: 1, Interpolate: true, Description: "white board, numbered markers"},
	"scaled":   {Theme: ThemeLight, Labels: LabelsOff, CounterStep: 100, Interpolate: true, Description: "counter advances by 100 per event"},
	"raw":      {Theme: ThemeLight, Labels: LabelsOff, CounterStep: 1, Interpolate: false, Description: "event frames only, no interpolation"},
}

func GetPreset(name string) (Preset, bool) {
	p, ok := Presets[name]
	return p, ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply copies the preset's presentation options onto r.
func (p Preset) Apply(r *Render) {
	r.Theme = p.Theme
	r.Labels = p.Labels
	r.CounterStep = p.CounterStep
	r.Interpolate = p.Interpolate
}
