package domain

// ConversionMethod identifies which strategy produced a conversion.
type ConversionMethod string

// Conversion methods. Earlier builds of the extension used "auto" for
// chat-page automation; NormalizeConversionMethod folds that spelling in.
const (
	MethodManual    ConversionMethod = "manual"
	MethodAutomated ConversionMethod = "automated"
	MethodAPI       ConversionMethod = "api"
)

// Valid reports whether m is a recognized conversion method.
func (m ConversionMethod) Valid() bool {
	switch m {
	case MethodManual, MethodAutomated, MethodAPI:
		return true
	}
	return false
}

// NormalizeConversionMethod maps legacy spellings onto the canonical enum.
// Unknown values fall back to manual, the safest method to attribute.
func NormalizeConversionMethod(raw string) ConversionMethod {
	switch ConversionMethod(raw) {
	case MethodManual, MethodAutomated, MethodAPI:
		return ConversionMethod(raw)
	}
	if raw == "auto" {
		return MethodAutomated
	}
	return MethodManual
}

// ConversionResult is the normalized output of one LLM conversion.
// Each field holds the contents of one labeled code fence, or the empty
// string when the fence was absent.
type ConversionResult struct {
	Template    string `json:"template"` // liquid fence
	Schema      string `json:"schema"`   // json fence
	Style       string `json:"style"`    // css fence
	Script      string `json:"script"`   // javascript fence
	RawResponse string `json:"raw_response"`
}

// Usable reports whether the conversion produced at least one of the two
// primary outputs. When both template and schema are empty the orchestrator
// declares the conversion failed and persists nothing.
func (r *ConversionResult) Usable() bool {
	return r.Template != "" || r.Schema != ""
}
