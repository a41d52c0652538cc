package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

// DirectorySeed is the on-disk layout of the directory seed file.
type DirectorySeed struct {
	Offices []OfficeSeed `yaml:"offices"`
}

// OfficeSeed describes one office and the services it offers.
type OfficeSeed struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Code     string        `yaml:"code"`
	Active   *bool         `yaml:"active"`
	Services []ServiceSeed `yaml:"services"`
}

// ServiceSeed describes one service. Active defaults to true and Code to the
// id when omitted.
type ServiceSeed struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Code   string `yaml:"code"`
	Active *bool  `yaml:"active"`
}

// LoadDirectory reads a seed file and flattens it into directory records.
func LoadDirectory(path string) ([]domain.Office, []domain.Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("directory seed: %w", err)
	}

	var seed DirectorySeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, nil, fmt.Errorf("directory seed: parse %s: %w", path, err)
	}

	return seed.Flatten()
}

// Flatten validates the seed and converts it into domain records.
func (s DirectorySeed) Flatten() ([]domain.Office, []domain.Service, error) {
	var offices []domain.Office
	var services []domain.Service
	seen := make(map[string]bool)

	for _, o := range s.Offices {
		if o.ID == "" || o.Name == "" {
			return nil, nil, fmt.Errorf("directory seed: office needs id and name (got %q/%q)", o.ID, o.Name)
		}
		offices = append(offices, domain.Office{
			ID:     o.ID,
			Name:   o.Name,
			Code:   codeOrID(o.Code, o.ID),
			Active: activeOrDefault(o.Active),
		})

		for _, svc := range o.Services {
			if svc.ID == "" || svc.Name == "" {
				return nil, nil, fmt.Errorf("directory seed: service in office %q needs id and name", o.ID)
			}
			if seen[svc.ID] {
				return nil, nil, fmt.Errorf("directory seed: duplicate service id %q", svc.ID)
			}
			seen[svc.ID] = true
			services = append(services, domain.Service{
				ID:       svc.ID,
				OfficeID: o.ID,
				Name:     svc.Name,
				Code:     codeOrID(svc.Code, svc.ID),
				Active:   activeOrDefault(svc.Active),
			})
		}
	}

	return offices, services, nil
}

// codeOrID keeps codes unique when the seed leaves them out.
func codeOrID(code, id string) string {
	if code == "" {
		return id
	}
	return code
}

func activeOrDefault(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}
