package formatters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"careermatch/internal/types"
)

// Output formats.
const (
	FormatJSON     = "json"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Data type names used as registry keys.
const (
	TypeAny         = "any"
	TypeReport      = "Report"
	TypeGapReport   = "GapReport"
	TypeProfile     = "Profile"
	TypeProfileList = "ProfileList"
	TypeCareerList  = "CareerList"
	TypeAdvice      = "Advice"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter(FormatJSON, TypeAny, &JSONFormatter{})
	for _, f := range []Formatter{
		&ReportTextFormatter{}, &GapReportTextFormatter{}, &ProfileTextFormatter{},
		&ProfileListTextFormatter{}, &CareerListTextFormatter{}, &AdviceTextFormatter{},
	} {
		registry.RegisterFormatter(FormatText, f.SupportedType(), f)
	}
	for _, f := range []Formatter{
		&ReportMarkdownFormatter{}, &GapReportMarkdownFormatter{}, &ProfileMarkdownFormatter{},
		&ProfileListMarkdownFormatter{}, &CareerListMarkdownFormatter{}, &AdviceMarkdownFormatter{},
	} {
		registry.RegisterFormatter(FormatMarkdown, f.SupportedType(), f)
	}

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters[TypeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

// Extension returns the file extension used when saving a format.
func Extension(format string) string {
	switch format {
	case FormatText:
		return "txt"
	case FormatMarkdown:
		return "md"
	default:
		return "json"
	}
}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	switch format {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "application/json"
	}
}

// FormatPercent renders a percentage with one decimal place.
func FormatPercent(percent float64) string {
	return fmt.Sprintf("%.1f%%", percent)
}

func getDataType(data any) string {
	switch data.(type) {
	case types.Report, *types.Report:
		return TypeReport
	case types.GapReport, *types.GapReport:
		return TypeGapReport
	case types.Profile, *types.Profile:
		return TypeProfile
	case []types.Profile:
		return TypeProfileList
	case []types.Career:
		return TypeCareerList
	case types.Advice, *types.Advice:
		return TypeAdvice
	default:
		return TypeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return TypeAny
}

// deref accepts both values and pointers for the formatted types.
func deref[T any](data any) (T, bool) {
	switch v := data.(type) {
	case T:
		return v, true
	case *T:
		if v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}

func sortedSkills(skills map[string]int) []string {
	names := make([]string, 0, len(skills))
	for name := range skills {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
