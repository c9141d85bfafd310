package utility

import (
	"fmt"
	"slices"
	"sync"

	"github.com/raterudder/energysim/pkg/types"
)

// Plan is a named flat tariff.
type Plan struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Tariff      types.Tariff `json:"tariff"`
}

func builtinPlans() []Plan {
	return []Plan{
		{
			Name:        "default",
			Description: "Retail import price with a reduced export credit",
			Tariff:      types.DefaultTariff(),
		},
		{
			Name:        "net_metering",
			Description: "Exports credited at the import price",
			Tariff: types.Tariff{
				ImportDollarsPerKWH: types.DefaultImportDollarsPerKWH,
				ExportDollarsPerKWH: types.DefaultImportDollarsPerKWH,
			},
		},
		{
			Name:        "no_export",
			Description: "Exports earn nothing",
			Tariff: types.Tariff{
				ImportDollarsPerKWH: types.DefaultImportDollarsPerKWH,
			},
		},
	}
}

// Map manages named tariff plans.
type Map struct {
	mu    sync.Mutex
	plans map[string]Plan
}

// NewMap creates a Map holding the built-in plans.
func NewMap() *Map {
	m := &Map{
		plans: make(map[string]Plan),
	}
	for _, p := range builtinPlans() {
		m.plans[p.Name] = p
	}
	return m
}

// Plan returns the plan with the given name.
func (m *Map) Plan(name string) (Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.plans[name]; ok {
		return p, nil
	}
	return Plan{}, fmt.Errorf("unknown tariff plan: %s", name)
}

// SetPlan adds or replaces a plan.
func (m *Map) SetPlan(p Plan) error {
	if p.Name == "" {
		return fmt.Errorf("tariff plan name is required: %w", types.ErrInvalidInput)
	}
	if err := p.Tariff.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.Name] = p
	return nil
}

// Names returns the plan names in sorted order.
func (m *Map) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.plans))
	for name := range m.plans {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Selection picks the tariff a run uses: the site's own tariff, replaced by a
// named plan if one is selected, replaced by an explicit tariff if one is
// given.
type Selection struct {
	plans    *Map
	plan     string
	override *types.Tariff
}

// NewSelection returns a Selection over plans.
func NewSelection(plans *Map, plan string, override *types.Tariff) *Selection {
	return &Selection{plans: plans, plan: plan, override: override}
}

// Resolve returns the tariff to use for a site whose own tariff is site.
func (s *Selection) Resolve(site types.Tariff) (types.Tariff, error) {
	t := site
	if s.plan != "" {
		p, err := s.plans.Plan(s.plan)
		if err != nil {
			return types.Tariff{}, err
		}
		t = p.Tariff
	}
	if s.override != nil {
		t = *s.override
	}
	if err := t.Validate(); err != nil {
		return types.Tariff{}, err
	}
	return t, nil
}
