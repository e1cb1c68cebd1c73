package secretsmanager

import "github.com/secretforge/secretforge/internal/errors"

// maxExcludeCharacters is the provider-side limit on the exclusion string.
const maxExcludeCharacters = 4096

// SecretStringGenerator describes the rules for generating a secret value.
// The zero value asks the provider for its own defaults (a 32-character
// password drawing from every character class).
type SecretStringGenerator struct {
	// ExcludeUppercase omits uppercase letters from the generated value.
	ExcludeUppercase bool
	// ExcludeLowercase omits lowercase letters from the generated value.
	ExcludeLowercase bool
	// ExcludeNumbers omits digits from the generated value.
	ExcludeNumbers bool
	// ExcludePunctuation omits punctuation from the generated value.
	ExcludePunctuation bool
	// IncludeSpace allows the space character in the generated value.
	IncludeSpace bool
	// PasswordLength is the generated length; 0 keeps the provider default
	// of 32.
	PasswordLength int
	// ExcludeCharacters lists individual characters to exclude, at most 4096.
	ExcludeCharacters string
	// RequireEachIncludedType demands at least one character of each allowed
	// class; nil keeps the provider default of true.
	RequireEachIncludedType *bool
	// SecretStringTemplate is a JSON template the generated value is merged
	// into. Must be set together with GenerateStringKey.
	SecretStringTemplate string
	// GenerateStringKey is the JSON key the generated value is stored under
	// within SecretStringTemplate. Must be set together with the template.
	GenerateStringKey string
}

// Validate enforces the template/key pairing invariant: the JSON template and
// the key to merge the generated value under are set together or not at all.
func (g *SecretStringGenerator) Validate() error {
	if (g.SecretStringTemplate != "") != (g.GenerateStringKey != "") {
		return errors.ConfigError{
			Field:      "generateSecretString",
			Message:    "secretStringTemplate and generateStringKey must be specified together",
			Suggestion: "Set both the JSON template and the key to merge the generated value under, or neither",
		}
	}
	if len(g.ExcludeCharacters) > maxExcludeCharacters {
		return errors.ConfigError{
			Field:      "excludeCharacters",
			Value:      len(g.ExcludeCharacters),
			Message:    "exclusion string exceeds the 4096 character limit",
			Suggestion: "Trim the excluded character set",
		}
	}
	return nil
}

// render emits only the fields that were set; an empty ruleset renders as an
// empty object, which the provider interprets as its defaults.
func (g *SecretStringGenerator) render() map[string]interface{} {
	properties := map[string]interface{}{}
	if g.ExcludeUppercase {
		properties["ExcludeUppercase"] = true
	}
	if g.ExcludeLowercase {
		properties["ExcludeLowercase"] = true
	}
	if g.ExcludeNumbers {
		properties["ExcludeNumbers"] = true
	}
	if g.ExcludePunctuation {
		properties["ExcludePunctuation"] = true
	}
	if g.IncludeSpace {
		properties["IncludeSpace"] = true
	}
	if g.PasswordLength > 0 {
		properties["PasswordLength"] = g.PasswordLength
	}
	if g.ExcludeCharacters != "" {
		properties["ExcludeCharacters"] = g.ExcludeCharacters
	}
	if g.RequireEachIncludedType != nil {
		properties["RequireEachIncludedType"] = *g.RequireEachIncludedType
	}
	if g.SecretStringTemplate != "" {
		properties["SecretStringTemplate"] = g.SecretStringTemplate
	}
	if g.GenerateStringKey != "" {
		properties["GenerateStringKey"] = g.GenerateStringKey
	}
	return properties
}
