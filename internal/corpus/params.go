package corpus

import (
	"net/http"
	"net/url"
	"strings"
)

// Endpoint paths on the insights server
const (
	IndexSearchPath     = "/api/corpussearch"
	NeuralNetSearchPath = "/api/nncorpussearch"
	ClearIndexPath      = "/api/cleartensorindex"
)

// RequestMethod returns the HTTP method used for a request path built here
func RequestMethod(path string) string {
	if strings.HasPrefix(path, ClearIndexPath) {
		return http.MethodPost
	}
	return http.MethodGet
}

// Param is a single query parameter
type Param struct {
	Key   string
	Value string
}

// Params is an ordered parameter set. Unlike url.Values, encoding keeps
// insertion order.
type Params []Param

// Add appends a parameter
func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

// Get returns the first value for key
func (p Params) Get(key string) string {
	for _, param := range p {
		if param.Key == key {
			return param.Value
		}
	}
	return ""
}

// Encode joins key=value pairs with '&', percent-encoding each value
func (p Params) Encode() string {
	parts := make([]string, 0, len(p))
	for _, param := range p {
		parts = append(parts, param.Key+"="+EncodeComponent(param.Value))
	}
	return strings.Join(parts, "&")
}

// EncodeComponent percent-encodes a single query value. Spaces become %20,
// never '+'.
func EncodeComponent(s string) string {
	// QueryEscape turns a literal '+' into %2B, so any '+' left is a space.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// IndexSearchURL builds the request path for a plain index search
func IndexSearchURL(query string) string {
	return IndexSearchPath + "?query=" + EncodeComponent(query)
}

// NeuralNetParams returns the parameters of a neural-net search in wire order
func NeuralNetParams(query string, model Model) Params {
	var p Params
	p = p.Add("query", query)
	p = p.Add("id", model.ID)
	p = p.Add("sl", model.SourceLanguage.Code)
	p = p.Add("tl", model.TargetLanguage.Code)
	return p
}

// NeuralNetSearchURL builds the request path for a neural-net search
func NeuralNetSearchURL(query string, model Model) string {
	return NeuralNetSearchPath + "?" + NeuralNetParams(query, model).Encode()
}
