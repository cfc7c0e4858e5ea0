// Package jurisdiction maps the ways callers name a US state onto one
// canonical key of the form "us/<state-slug>".
package jurisdiction

import (
	"sort"
	"strings"

	ferrors "github.com/a3tai/mcp-official-forms/internal/errors"
)

// Prefix is the country prefix every canonical key carries
const Prefix = "us/"

// Key is a canonical jurisdiction identifier such as "us/florida"
type Key string

// State describes one entry of the normalization table
type State struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Key  Key    `json:"key"`
}

var states = []State{
	{Code: "AL", Name: "Alabama"},
	{Code: "AK", Name: "Alaska"},
	{Code: "AZ", Name: "Arizona"},
	{Code: "AR", Name: "Arkansas"},
	{Code: "CA", Name: "California"},
	{Code: "CO", Name: "Colorado"},
	{Code: "CT", Name: "Connecticut"},
	{Code: "DE", Name: "Delaware"},
	{Code: "DC", Name: "District of Columbia"},
	{Code: "FL", Name: "Florida"},
	{Code: "GA", Name: "Georgia"},
	{Code: "HI", Name: "Hawaii"},
	{Code: "ID", Name: "Idaho"},
	{Code: "IL", Name: "Illinois"},
	{Code: "IN", Name: "Indiana"},
	{Code: "IA", Name: "Iowa"},
	{Code: "KS", Name: "Kansas"},
	{Code: "KY", Name: "Kentucky"},
	{Code: "LA", Name: "Louisiana"},
	{Code: "ME", Name: "Maine"},
	{Code: "MD", Name: "Maryland"},
	{Code: "MA", Name: "Massachusetts"},
	{Code: "MI", Name: "Michigan"},
	{Code: "MN", Name: "Minnesota"},
	{Code: "MS", Name: "Mississippi"},
	{Code: "MO", Name: "Missouri"},
	{Code: "MT", Name: "Montana"},
	{Code: "NE", Name: "Nebraska"},
	{Code: "NV", Name: "Nevada"},
	{Code: "NH", Name: "New Hampshire"},
	{Code: "NJ", Name: "New Jersey"},
	{Code: "NM", Name: "New Mexico"},
	{Code: "NY", Name: "New York"},
	{Code: "NC", Name: "North Carolina"},
	{Code: "ND", Name: "North Dakota"},
	{Code: "OH", Name: "Ohio"},
	{Code: "OK", Name: "Oklahoma"},
	{Code: "OR", Name: "Oregon"},
	{Code: "PA", Name: "Pennsylvania"},
	{Code: "RI", Name: "Rhode Island"},
	{Code: "SC", Name: "South Carolina"},
	{Code: "SD", Name: "South Dakota"},
	{Code: "TN", Name: "Tennessee"},
	{Code: "TX", Name: "Texas"},
	{Code: "UT", Name: "Utah"},
	{Code: "VT", Name: "Vermont"},
	{Code: "VA", Name: "Virginia"},
	{Code: "WA", Name: "Washington"},
	{Code: "WV", Name: "West Virginia"},
	{Code: "WI", Name: "Wisconsin"},
	{Code: "WY", Name: "Wyoming"},
}

// lookup indexes every accepted lowercase spelling to its table position
var (
	lookup = map[string]int{}
	byKey  = map[Key]int{}
)

func init() {
	for i := range states {
		slug := strings.ReplaceAll(strings.ToLower(states[i].Name), " ", "-")
		states[i].Key = Key(Prefix + slug)

		lookup[strings.ToLower(states[i].Code)] = i
		lookup[strings.ToLower(states[i].Name)] = i
		lookup[slug] = i
		lookup[string(states[i].Key)] = i
		byKey[states[i].Key] = i
	}
	// Common short form for the District
	lookup["washington dc"] = byKey[Key(Prefix+"district-of-columbia")]
	lookup["washington d.c."] = byKey[Key(Prefix+"district-of-columbia")]
}

// Normalize maps a 2-letter code, a state name or a "us/slug" key onto the
// canonical key. Matching is case-insensitive; normalizing a key returns it.
func Normalize(input string) (Key, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.Join(strings.Fields(s), " ")

	if i, ok := lookup[s]; ok {
		return states[i].Key, nil
	}
	return "", ferrors.NewWithContext(ferrors.ErrorTypeUnsupportedJurisdiction,
		"jurisdiction is not a US state or DC", input)
}

// MustNormalize is Normalize for compiled-in tables; it panics on bad input
func MustNormalize(input string) Key {
	k, err := Normalize(input)
	if err != nil {
		panic(err)
	}
	return k
}

// All returns the normalization table sorted by canonical key
func All() []State {
	out := make([]State, len(states))
	copy(out, states)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// String implements fmt.Stringer
func (k Key) String() string {
	return string(k)
}

// Slug returns the part after the country prefix
func (k Key) Slug() string {
	return strings.TrimPrefix(string(k), Prefix)
}

// Code returns the postal abbreviation, or "" for a non-canonical key
func (k Key) Code() string {
	if i, ok := byKey[k]; ok {
		return states[i].Code
	}
	return ""
}

// Name returns the display name, or "" for a non-canonical key
func (k Key) Name() string {
	if i, ok := byKey[k]; ok {
		return states[i].Name
	}
	return ""
}
