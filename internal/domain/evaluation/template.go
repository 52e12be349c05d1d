package evaluation

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed template.yaml
var bundledTemplate []byte

type templateFile struct {
	Items []templateItem `yaml:"items"`
}

type templateItem struct {
	No          int            `yaml:"no"`
	Category    string         `yaml:"category"`
	SubCategory string         `yaml:"subCategory"`
	Item        string         `yaml:"item"`
	Axis        string         `yaml:"axis"`
	Max         int            `yaml:"max"`
	Desc        string         `yaml:"desc"`
	PointDesc   string         `yaml:"pointDesc"`
	Criteria    map[int]string `yaml:"criteria"`
	ValidScores []int          `yaml:"validScores"`
}

// Template is the ordered, unscored item list every new record starts from.
type Template struct {
	items []Item
	byNo  map[int]int
}

func DefaultTemplate() (*Template, error) {
	return ParseTemplate(bundledTemplate)
}

// LoadTemplate reads a template from path, or the bundled one when path is empty.
func LoadTemplate(path string) (*Template, error) {
	if path == "" {
		return DefaultTemplate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}
	return ParseTemplate(data)
}

func ParseTemplate(data []byte) (*Template, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if len(file.Items) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalidTemplate)
	}

	tmpl := &Template{
		items: make([]Item, 0, len(file.Items)),
		byNo:  make(map[int]int, len(file.Items)),
	}
	for _, raw := range file.Items {
		item := Item{
			No:          raw.No,
			Category:    Category(raw.Category),
			SubCategory: raw.SubCategory,
			Item:        raw.Item,
			Axis:        Axis(raw.Axis),
			Max:         raw.Max,
			Desc:        raw.Desc,
			PointDesc:   raw.PointDesc,
			Criteria:    raw.Criteria,
			ValidScores: raw.ValidScores,
		}
		if _, dup := tmpl.byNo[item.No]; dup {
			return nil, fmt.Errorf("%w: duplicate item no %d", ErrInvalidTemplate, item.No)
		}
		if !item.Category.Valid() {
			return nil, fmt.Errorf("%w: item %d has unknown category %q", ErrInvalidTemplate, item.No, raw.Category)
		}
		if !item.Axis.Valid() {
			return nil, fmt.Errorf("%w: item %d has unknown axis %q", ErrInvalidTemplate, item.No, raw.Axis)
		}
		if item.Max == 0 {
			return nil, fmt.Errorf("%w: item %d has zero max", ErrInvalidTemplate, item.No)
		}
		tmpl.byNo[item.No] = len(tmpl.items)
		tmpl.items = append(tmpl.items, item)
	}
	return tmpl, nil
}

// NewItems returns a fresh, unscored copy of the template. Incident-tracked
// items start at 0 since an empty incident list is "no negative event".
func (t *Template) NewItems() []Item {
	out := CloneItems(t.items)
	for i := range out {
		out[i].Score = nil
		if out[i].IncidentTracked() {
			out[i].Score = IntPtr(0)
		}
	}
	return out
}

func (t *Template) Lookup(no int) (Item, bool) {
	idx, ok := t.byNo[no]
	if !ok {
		return Item{}, false
	}
	return t.items[idx].Clone(), true
}

func (t *Template) Len() int {
	return len(t.items)
}

// SubCategories lists the distinct sub-categories of cat in template order.
func (t *Template) SubCategories(cat Category) []string {
	var out []string
	seen := map[string]bool{}
	for _, it := range t.items {
		if it.Category != cat || seen[it.SubCategory] {
			continue
		}
		seen[it.SubCategory] = true
		out = append(out, it.SubCategory)
	}
	return out
}
