package plugin

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Name rules for plugins and commands: 1 to 16 characters, ASCII
// alphanumeric only. Alphanumeric-only already excludes whitespace, but
// both rules come from the interface contract so both are checked
// explicitly.
const maxNameLength = 16

// ValidateName reports whether s is a legal plugin or command name.
func ValidateName(s string) bool {
	if len(s) < 1 || len(s) > maxNameLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		default:
			return false
		}
	}
	return true
}

// ValidateVersion reports whether s is a strict semantic version:
// major.minor.patch with optional pre-release and build metadata and no
// leading "v".
func ValidateVersion(s string) bool {
	_, err := semver.StrictNewVersion(s)
	return err == nil
}

// ValidateInfo checks everything a guest declared at init time: the plugin
// name, the version, every command name, and command-name uniqueness
// within the plugin. A violation rejects the plugin in full; there is no
// partial registration. The returned error is always a *LoadError of kind
// LoadValidation naming the offending field.
func ValidateInfo(info *Info) error {
	if !ValidateName(info.Name) {
		return &LoadError{
			Kind:   LoadValidation,
			Plugin: info.Name,
			Field:  "name",
			Err:    nameRuleError(info.Name),
		}
	}
	if !ValidateVersion(info.Version) {
		return &LoadError{
			Kind:   LoadValidation,
			Plugin: info.Name,
			Field:  "version",
			Err:    fmt.Errorf("%q is not a semantic version (want major.minor.patch)", info.Version),
		}
	}
	seen := make(map[string]bool, len(info.Commands))
	for i, cmd := range info.Commands {
		if !ValidateName(cmd.Name) {
			return &LoadError{
				Kind:   LoadValidation,
				Plugin: info.Name,
				Field:  fmt.Sprintf("commands[%d].name", i),
				Err:    nameRuleError(cmd.Name),
			}
		}
		if seen[cmd.Name] {
			return &LoadError{
				Kind:   LoadValidation,
				Plugin: info.Name,
				Field:  fmt.Sprintf("commands[%d].name", i),
				Err:    fmt.Errorf("duplicate command %q within plugin", cmd.Name),
			}
		}
		seen[cmd.Name] = true
	}
	return nil
}

// nameRuleError pinpoints the rule a bad name violates, so the user sees
// which character (or length) disqualified it.
func nameRuleError(s string) error {
	if len(s) == 0 {
		return fmt.Errorf("name is empty")
	}
	if len(s) > maxNameLength {
		return fmt.Errorf("name %q is %d characters, the limit is %d", s, len(s), maxNameLength)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			continue
		}
		return fmt.Errorf("name %q contains %q at position %d, only ASCII letters and digits are allowed", s, string(s[i]), i)
	}
	return fmt.Errorf("name %q is invalid", s)
}
