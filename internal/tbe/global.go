package tbe

import "strings"

const (
	globalStart = "TBL Global"
	globalEnd   = "EOT Global"
)

// Attribute is one name/value pair of the global metadata block.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// globalScanner collects the lines between "TBL Global" and "EOT Global".
// Each line there reads "<tag>,<name>,<value>"; the value may contain commas.
type globalScanner struct {
	inside bool
	attrs  []Attribute
}

func (g *globalScanner) feed(line string) {
	line = strings.TrimSpace(strings.ReplaceAll(line, `"`, ""))

	switch {
	case strings.HasPrefix(line, globalStart):
		g.inside = true
		return
	case strings.HasPrefix(line, globalEnd):
		g.inside = false
		return
	}

	if !g.inside || !strings.Contains(line, ",") {
		return
	}

	parts := strings.SplitN(line, ",", 3)
	name := strings.TrimSpace(parts[1])
	if name == "" {
		return
	}
	value := ""
	if len(parts) > 2 {
		value = strings.TrimSpace(parts[2])
	}

	for i := range g.attrs {
		if g.attrs[i].Name == name {
			g.attrs[i].Value = value
			return
		}
	}
	g.attrs = append(g.attrs, Attribute{Name: name, Value: value})
}

func (g *globalScanner) result() []Attribute {
	if g.attrs == nil {
		return []Attribute{}
	}
	return g.attrs
}

// ExtractGlobal returns the attributes of the global metadata block.
// A file without the block yields an empty slice.
func ExtractGlobal(lines []string) []Attribute {
	g := &globalScanner{}
	for _, line := range lines {
		g.feed(line)
	}
	return g.result()
}
