package plan

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source defines how a plan catalog is loaded.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// staticSource serves a pre-built catalog, used for the default catalog
// and for tests.
type staticSource struct {
	catalog *Catalog
}

// NewStaticSource returns a Source that always yields the given catalog.
func NewStaticSource(c *Catalog) Source {
	return staticSource{catalog: c}
}

func (s staticSource) Load(_ context.Context) (*Catalog, error) {
	return s.catalog, nil
}

// yamlPlan is the on-disk representation of a plan entry.
type yamlPlan struct {
	Name     string           `yaml:"name"`
	PriceID  string           `yaml:"price_id"`
	Limits   map[string]int64 `yaml:"limits"`
	Features []string         `yaml:"features"`
}

// fileSource loads the catalog from a YAML file so plan changes ship as
// config, not code.
type fileSource struct {
	path string
}

// NewFileSource returns a Source backed by a YAML catalog file.
//
// Example file:
//
//	free:
//	  name: Free
//	  limits:
//	    transactions: 5
//	    clients: 5
//	pro:
//	  name: Pro
//	  price_id: pri_01abc
//	  limits:
//	    transactions: -1
//	    clients: -1
//	  features: [reports, export]
func NewFileSource(path string) Source {
	return fileSource{path: path}
}

func (s fileSource) Load(_ context.Context) (*Catalog, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	var entries map[Tier]yamlPlan
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	plans := make(map[Tier]Plan, len(entries))
	for tier, entry := range entries {
		p := Plan{
			Tier:    tier,
			Name:    entry.Name,
			PriceID: entry.PriceID,
		}
		if len(entry.Limits) > 0 {
			p.Limits = make(map[Resource]int64, len(entry.Limits))
			for res, limit := range entry.Limits {
				p.Limits[Resource(res)] = limit
			}
		}
		for _, f := range entry.Features {
			p.Features = append(p.Features, Feature(f))
		}
		plans[tier] = p
	}

	return NewCatalog(plans)
}

// validatePlans ensures the catalog is internally consistent.
// Catches configuration mistakes at startup rather than at check time.
func validatePlans(plans map[Tier]Plan) error {
	if _, ok := plans[TierFree]; !ok {
		return errors.Join(ErrInvalidPlanConfiguration,
			errors.New("catalog must define the free tier"))
	}

	for tier, p := range plans {
		if !tier.Valid() {
			return errors.Join(ErrInvalidPlanConfiguration, ErrUnknownTier,
				fmt.Errorf("tier %q", tier))
		}
		if p.Tier != "" && p.Tier != tier {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("tier mismatch: map key %s != plan.Tier %s", tier, p.Tier))
		}
		for res, limit := range p.Limits {
			if limit < Unlimited {
				return errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("plan %s has invalid limit %d for %s", tier, limit, res))
			}
		}
	}
	return nil
}
