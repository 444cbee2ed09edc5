package emulation

// Verbosity controls how much diagnostic output the engine produces.
// The numeric levels are part of the engine ABI.
type Verbosity int

const (
	VerbosityShort             Verbosity = 0
	VerbosityFull              Verbosity = 1
	VerbosityFullLocation      Verbosity = 2
	VerbosityFullLocationStack Verbosity = 3
)

var verbosityNames = map[string]Verbosity{
	"short":               VerbosityShort,
	"full":                VerbosityFull,
	"full_location":       VerbosityFullLocation,
	"full_location_stack": VerbosityFullLocationStack,
}

// ParseVerbosity maps a verbosity name to its engine level.
func ParseVerbosity(name string) (Verbosity, error) {
	v, ok := verbosityNames[name]
	if !ok {
		return 0, &UnknownVerbosityError{Name: name}
	}
	return v, nil
}

// String returns the verbosity name, or "unknown" for out-of-range levels.
func (v Verbosity) String() string {
	switch v {
	case VerbosityShort:
		return "short"
	case VerbosityFull:
		return "full"
	case VerbosityFullLocation:
		return "full_location"
	case VerbosityFullLocationStack:
		return "full_location_stack"
	default:
		return "unknown"
	}
}
