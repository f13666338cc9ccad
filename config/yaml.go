package config

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to accept "30s"-style yaml values.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("can't parse duration %q: %w", raw, err)
	}
	d.Duration = dur
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Decimal wraps decimal.Decimal to accept quoted decimal yaml values.
type Decimal struct {
	decimal.Decimal
}

func (d *Decimal) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("can't parse decimal %q: %w", raw, err)
	}
	d.Decimal = v
	return nil
}

func (d Decimal) MarshalYAML() (interface{}, error) {
	return d.Decimal.String(), nil
}

// Level wraps logrus.Level to accept "debug"-style yaml values.
type Level struct {
	logrus.Level
}

func (l *Level) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		return fmt.Errorf("can't parse log level %q: %w", raw, err)
	}
	l.Level = level
	return nil
}

func (l Level) MarshalYAML() (interface{}, error) {
	return l.Level.String(), nil
}

func parseYaml(out interface{}, blob []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(blob))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("can't parse yaml: %w", err)
	}
	return nil
}
