// Package i18n loads the message catalog used for notification text and
// pluralized counters.
package i18n

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed en.yml
var defaultCatalog []byte

// Catalog is a flattened set of messages keyed by dotted path.
type Catalog struct {
	messages map[string]string
	plurals  map[string]map[string]string
}

type catalogFile struct {
	Notifications map[string]string            `yaml:"notifications"`
	Actions       map[string]string            `yaml:"actions"`
	Plurals       map[string]map[string]string `yaml:"plurals"`
}

// Load parses a YAML catalog.
func Load(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c := &Catalog{
		messages: make(map[string]string, len(f.Notifications)+len(f.Actions)),
		plurals:  f.Plurals,
	}
	for k, v := range f.Notifications {
		c.messages["notifications."+k] = v
	}
	for k, v := range f.Actions {
		c.messages["actions."+k] = v
	}
	if c.plurals == nil {
		c.plurals = map[string]map[string]string{}
	}
	return c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded English catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(defaultCatalog)
		if err != nil {
			panic(err)
		}
		defaultCat = c
	})
	return defaultCat
}

// T returns the message for key, or the key itself when missing.
func (c *Catalog) T(key string) string {
	if msg, ok := c.messages[key]; ok {
		return msg
	}
	return key
}

// Plural picks the zero/one/other form of key for n and fills {count}.
func (c *Catalog) Plural(key string, n int64) string {
	forms, ok := c.plurals[key]
	if !ok {
		return strconv.FormatInt(n, 10)
	}
	form, ok := "", false
	switch n {
	case 0:
		form, ok = forms["zero"]
	case 1:
		form, ok = forms["one"]
	}
	if !ok {
		form = forms["other"]
	}
	return strings.ReplaceAll(form, "{count}", strconv.FormatInt(n, 10))
}

// T looks up key in the default catalog.
func T(key string) string { return Default().T(key) }

// Plural pluralizes key in the default catalog.
func Plural(key string, n int64) string { return Default().Plural(key, n) }
