// Package edamam talks to the Edamam Recipe Search API (v2)
package edamam

import (
	"net/url"
	"strings"

	"github.com/surpriseme/recipes/internal/domain/filter"
)

// DefaultBaseURL is the public v2 search endpoint
const DefaultBaseURL = "https://api.edamam.com/api/recipes/v2"

// Query parameter keys
const (
	ParamType     = "type"
	ParamAppID    = "app_id"
	ParamAppKey   = "app_key"
	ParamMealType = "mealType"
	ParamTime     = "time"
	ParamRandom   = "random"
	ParamHealth   = "health"
	ParamDiet     = "diet"
)

// Credentials identify the calling application
type Credentials struct {
	AppID  string
	AppKey string
}

// Param is one key=value entry of a query string
type Param struct {
	Key   string
	Value string
}

// Request describes a search call: the endpoint plus its parameters in the
// order they are written to the query string.
type Request struct {
	BaseURL string
	Params  []Param
}

// BuildRequest turns a selection into a search request. It performs no I/O
// and accepts any tag value; tags outside the form vocabulary are forwarded
// unchanged. Allergy tags become repeated health entries and diet tags
// repeated diet entries, each in selection order, and an empty group adds
// no entry at all.
func BuildRequest(baseURL string, creds Credentials, sel filter.Selection) Request {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	allergies := sel.Allergies()
	diets := sel.Diets()

	params := make([]Param, 0, 6+len(allergies)+len(diets))
	params = append(params,
		Param{ParamType, "public"},
		Param{ParamAppID, creds.AppID},
		Param{ParamAppKey, creds.AppKey},
		Param{ParamMealType, sel.Meal().String()},
		Param{ParamTime, sel.CookTime()},
		Param{ParamRandom, "true"},
	)
	for _, tag := range allergies {
		params = append(params, Param{ParamHealth, tag})
	}
	for _, tag := range diets {
		params = append(params, Param{ParamDiet, tag})
	}

	return Request{BaseURL: baseURL, Params: params}
}

// Values returns the parameters as url.Values. Entries under a repeated
// key keep their relative order.
func (r Request) Values() url.Values {
	v := make(url.Values, len(r.Params))
	for _, p := range r.Params {
		v.Add(p.Key, p.Value)
	}
	return v
}

// Encode writes the query string in parameter order
func (r Request) Encode() string {
	var b strings.Builder
	for i, p := range r.Params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// URL returns the full request URL
func (r Request) URL() string {
	sep := "?"
	if strings.Contains(r.BaseURL, "?") {
		sep = "&"
	}
	return r.BaseURL + sep + r.Encode()
}

// Redacted returns URL with the credential values masked, for logs and
// dry runs.
func (r Request) Redacted() string {
	masked := Request{BaseURL: r.BaseURL, Params: make([]Param, len(r.Params))}
	for i, p := range r.Params {
		if (p.Key == ParamAppID || p.Key == ParamAppKey) && p.Value != "" {
			p.Value = "REDACTED"
		}
		masked.Params[i] = p
	}
	return masked.URL()
}
