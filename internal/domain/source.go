package domain

// Source records how a ScoreRecord came to exist.
type Source string

const (
	SourceComputed  Source = "computed"  // produced by the rule-based calculators
	SourceExternal  Source = "external"  // submitted by an outside scoring authority
	SourceBootstrap Source = "bootstrap" // neutral default synthesized when nothing else was available
)

// String returns the string representation of Source.
func (s Source) String() string {
	return string(s)
}

// IsValid checks if the source is a valid value.
func (s Source) IsValid() bool {
	return s == SourceComputed || s == SourceExternal || s == SourceBootstrap
}
