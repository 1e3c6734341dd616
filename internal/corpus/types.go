package corpus

import "encoding/json"

// Language identifies one side of a translation model
type Language struct {
	Code string `json:"code" mapstructure:"code"`
	Name string `json:"name,omitempty" mapstructure:"name"`
}

// Model is the translation model a neural-net search is scoped to
type Model struct {
	ID             string   `json:"id" mapstructure:"id"`
	SourceLanguage Language `json:"source_language" mapstructure:"source_language"`
	TargetLanguage Language `json:"target_language" mapstructure:"target_language"`
}

// Response is the raw server response. Its shape is owned by the server.
type Response = json.RawMessage

// IndexMatch is one entry of a plain index search. The server encodes these
// either as [query, target] pairs or as objects.
type IndexMatch struct {
	Source   string   `json:"sourcelang"`
	Target   string   `json:"targetlang"`
	Distance *float64 `json:"distance,omitempty"`
}

// GraphStateMatch is one entry of a neural-net search
type GraphStateMatch struct {
	Vector         []float64 `json:"vector"`
	TextInstance   string    `json:"textInstance"`
	TensorDistance float64   `json:"tensordistance"`
}
