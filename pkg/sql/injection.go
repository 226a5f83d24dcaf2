package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a detected SQL injection pattern in user input.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if an injection pattern was detected
	Fingerprint string // libinjection fingerprint of the detected pattern
}

// CheckQuestionForInjection screens a raw natural-language question for SQL
// injection payloads before it reaches any prompt or query. Ordinary prose
// passes; payloads like "'; DROP TABLE users--" are flagged.
//
// Returns nil when the question is clean.
func CheckQuestionForInjection(question string) *InjectionCheckResult {
	isSQLi, fingerprint := libinjection.IsSQLi(question)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
	}
}
