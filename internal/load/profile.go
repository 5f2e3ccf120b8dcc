package load

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type rawStage struct {
	Name     string  `yaml:"name"`
	Duration string  `yaml:"duration"`
	RPS      float64 `yaml:"rps"`
}

// UnmarshalYAML accepts durations in Go syntax ("30s", "2m").
func (s *Stage) UnmarshalYAML(value *yaml.Node) error {
	var raw rawStage
	if err := value.Decode(&raw); err != nil {
		return err
	}
	d, err := time.ParseDuration(raw.Duration)
	if err != nil {
		return errors.Wrapf(err, "stage %q duration", raw.Name)
	}
	s.Name = raw.Name
	s.Duration = d
	s.RPS = raw.RPS
	return nil
}

// LoadProfile reads a stage list from a YAML file.
func LoadProfile(file string) ([]Stage, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "read load profile")
	}
	var doc struct {
		Stages []Stage `yaml:"stages"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "parse load profile")
	}
	if len(doc.Stages) == 0 {
		return nil, errors.New("load profile has no stages")
	}
	return doc.Stages, nil
}
