package translate

import "context"

// Provider performs remote machine translation. Implementations must be
// treated as fallible and possibly slow; orchestration, caching and fallback
// live in Session, never here.
type Provider interface {
	// LocalizeObject translates every value of the field map from
	// sourceLocale to targetLocale, preserving keys.
	LocalizeObject(ctx context.Context, fields map[string]string, sourceLocale, targetLocale string) (map[string]string, error)

	// LocalizeText translates a single string.
	LocalizeText(ctx context.Context, text, sourceLocale, targetLocale string) (string, error)
}
