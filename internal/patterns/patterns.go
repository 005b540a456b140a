// Package patterns holds the immutable regular expression tables the field
// extractors scan with. Tables are built once and only read afterwards.
package patterns

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed merchants.yaml
var defaultMerchantsYAML []byte

//go:embed merchants.schema.json
var merchantsSchemaJSON []byte

// Amount matches a money amount with exactly two decimals, optional "$" and
// optional thousands separators.
const Amount = `\$?(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}`

// trailing amount, preceded by start/space/colon/equals, at end of line
const trailingAmount = `(?:^|[\s:=])(` + Amount + `)\s*$`

// Merchant is one canonical merchant and the aliases that identify it.
type Merchant struct {
	Name    string
	Aliases []*regexp.Regexp
}

// DateShape is one textual date form and the layouts tried for it, in order.
type DateShape struct {
	Name       string
	Re         *regexp.Regexp
	Layouts    []string
	Confidence float64
}

// LineShape is one line item form. Groups are named name, qty, unit, price.
type LineShape struct {
	Name string
	Re   *regexp.Regexp
}

// TotalPattern captures the amount in group 1.
type TotalPattern struct {
	Name string
	Re   *regexp.Regexp
}

// Table is the full set of extraction patterns.
type Table struct {
	Merchants   []Merchant
	Dates       []DateShape
	LineShapes  []LineShape
	SkipKeyword *regexp.Regexp
	Totals      []TotalPattern
	Subtotal    *regexp.Regexp

	// TotalExclude marks lines that mention a total but carry some other
	// amount, such as savings or an item count.
	TotalExclude *regexp.Regexp
	Tax          *regexp.Regexp
}

type merchantFile struct {
	Merchants []struct {
		Name    string   `yaml:"name"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"merchants"`
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the table built from the embedded merchant list. It panics
// if the embedded data is invalid, which is a build defect.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(defaultMerchantsYAML)
		if err != nil {
			panic(fmt.Sprintf("patterns: embedded merchant table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// LoadFile builds a table from a merchant YAML file on disk.
func LoadFile(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read merchant table: %w", err)
	}
	return Load(b)
}

// Load validates the merchant YAML against the schema and builds a table.
func Load(merchantsYAML []byte) (*Table, error) {
	if err := validateMerchants(merchantsYAML); err != nil {
		return nil, err
	}
	var f merchantFile
	if err := yaml.UnmarshalWithOptions(merchantsYAML, &f, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("decode merchant table: %w", err)
	}

	merchants := make([]Merchant, 0, len(f.Merchants))
	for _, m := range f.Merchants {
		entry := Merchant{Name: m.Name}
		for _, a := range m.Aliases {
			re, err := regexp.Compile(`(?i)` + a)
			if err != nil {
				return nil, fmt.Errorf("merchant %q alias %q: %w", m.Name, a, err)
			}
			entry.Aliases = append(entry.Aliases, re)
		}
		merchants = append(merchants, entry)
	}

	t := builtin()
	t.Merchants = merchants
	return t, nil
}

func validateMerchants(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("merchants.schema.json", bytes.NewReader(merchantsSchemaJSON)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("merchants.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	j, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("merchant table is not valid yaml: %w", err)
	}
	var v any
	if err := json.Unmarshal(j, &v); err != nil {
		return fmt.Errorf("unmarshal merchant table: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("merchant table does not match schema: %w", err)
	}
	return nil
}

const monthName = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var totalExclude = regexp.MustCompile(`(?i)\btotal\s+(?:savings|saved|discount|tax|tips?|items?|qty|quantity)\b` +
	`|\b(?:you\s+saved|savings|discount)\b`)

// taxLine wants the keyword to open the line, optionally after a
// jurisdiction word, so "Tax-free Water 1.00" is an item and not tax.
var taxLine = regexp.MustCompile(`(?i)^(?:(?:sales|state|local|city|county|estimated)\s+)?(?:tax|vat|gst|hst)\b(?:[^\w\-].*?)?` + trailingAmount)

// builtin returns the fixed patterns; merchants are filled in by Load.
func builtin() *Table {
	return &Table{
		Dates: []DateShape{
			{
				Name:       "slash",
				Re:         regexp.MustCompile(`\b\d{1,2}/\d{1,2}/(?:\d{4}|\d{2})\b`),
				Layouts:    []string{"1/2/2006", "1/2/06", "2/1/2006"},
				Confidence: 1.0,
			},
			{
				Name:       "iso",
				Re:         regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
				Layouts:    []string{"2006-01-02"},
				Confidence: 1.0,
			},
			{
				Name:       "dash",
				Re:         regexp.MustCompile(`\b\d{2}-\d{2}-\d{4}\b`),
				Layouts:    []string{"02-01-2006", "01-02-2006"},
				Confidence: 1.0,
			},
			{
				Name:       "month-name",
				Re:         regexp.MustCompile(`(?i)\b\d{1,2}\s+` + monthName + `\s+\d{4}\b`),
				Layouts:    []string{"2 Jan 2006", "2 January 2006"},
				Confidence: 0.9,
			},
		},
		LineShapes: []LineShape{
			{
				Name: "qty-at-unit",
				Re: regexp.MustCompile(`^(?P<name>.+?)\s+(?P<qty>\d+(?:\.\d+)?)\s*(?:@|[xX])\s*(?P<unit>` + Amount +
					`)(?:\s*=\s*|\s+)(?P<price>` + Amount + `)(?:\s+[A-Za-z])?$`),
			},
			{
				Name: "qty-unit-price",
				Re: regexp.MustCompile(`^(?P<name>.+?)\s+(?P<qty>\d+)\s+(?P<unit>` + Amount +
					`)\s+(?P<price>` + Amount + `)(?:\s+[A-Za-z])?$`),
			},
			{
				Name: "name-price",
				Re:   regexp.MustCompile(`^(?P<name>.+?)\s+(?P<price>` + Amount + `)(?:\s+[A-Za-z])?$`),
			},
		},
		SkipKeyword: regexp.MustCompile(`(?i)\b(?:sub-total|subtotal|total|tax|vat|balance|change|cash|tender|visa|mastercard|amex|discover|debit|credit|payment|amount\s+due)(?:[^\w\-]|$)`),
		Totals: []TotalPattern{
			{Name: "total", Re: regexp.MustCompile(`(?i)\btotal\b.*?` + trailingAmount)},
			{Name: "amount-due", Re: regexp.MustCompile(`(?i)\bamount\s+due\b.*?` + trailingAmount)},
			{Name: "balance", Re: regexp.MustCompile(`(?i)\bbalance(?:\s+due)?\b.*?` + trailingAmount)},
		},
		Subtotal:     regexp.MustCompile(`(?i)\bsub[\s\-]?total\b`),
		TotalExclude: totalExclude,
		Tax:          taxLine,
	}
}

// MerchantNames lists canonical names in table order.
func (t *Table) MerchantNames() []string {
	names := make([]string, len(t.Merchants))
	for i, m := range t.Merchants {
		names[i] = m.Name
	}
	return names
}
