package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// choiceValue is a pflag.Value restricted to a fixed set of strings.
// Invalid values are rejected at flag-parse time instead of deep inside
// a command handler.
type choiceValue struct {
	value   *string
	choices []string
}

func newChoiceValue(def string, target *string, choices ...string) *choiceValue {
	*target = def
	return &choiceValue{value: target, choices: choices}
}

func (c *choiceValue) String() string {
	return *c.value
}

func (c *choiceValue) Set(s string) error {
	for _, choice := range c.choices {
		if s == choice {
			*c.value = s
			return nil
		}
	}
	return fmt.Errorf("must be one of: %s", strings.Join(c.choices, ", "))
}

func (c *choiceValue) Type() string {
	return "string"
}

var _ pflag.Value = (*choiceValue)(nil)
