package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Posting is a job the CV is matched against.
type Posting struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title" validate:"required_without=Description"`
	Company     string `json:"company,omitempty" yaml:"company,omitempty" mapstructure:"company"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty" mapstructure:"location"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description" validate:"required_without=Title"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url" validate:"omitempty,url"`
	Salary      string `json:"salary,omitempty" yaml:"salary,omitempty" mapstructure:"salary"`
	JobType     string `json:"job_type,omitempty" yaml:"job_type,omitempty" mapstructure:"job_type"`
}

var validate = validator.New()

// Validate checks that the posting carries at least a title or a description.
func (p *Posting) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid job posting: %w", err)
	}
	return nil
}

// Merge fills empty fields of p from other.
func (p *Posting) Merge(other Posting) {
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = src
		}
	}
	fill(&p.Title, other.Title)
	fill(&p.Company, other.Company)
	fill(&p.Location, other.Location)
	fill(&p.Description, other.Description)
	fill(&p.URL, other.URL)
	fill(&p.Salary, other.Salary)
	fill(&p.JobType, other.JobType)
}

// LoadFile reads a posting from YAML or JSON. Any other extension is read as a
// plain-text description.
func LoadFile(path string) (*Posting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job posting %q: %w", path, err)
	}

	var posting Posting
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &posting); err != nil {
			return nil, fmt.Errorf("parse job posting yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &posting); err != nil {
			return nil, fmt.Errorf("parse job posting json: %w", err)
		}
	default:
		posting.Description = strings.TrimSpace(string(data))
	}

	if err := posting.Validate(); err != nil {
		return nil, err
	}

	return &posting, nil
}
