package wireguard

import (
	"regexp"
	"strings"
)

const (
	RuleEmpty      = "empty"
	RuleInterface  = "interface_section"
	RulePrivateKey = "private_key"
	RulePeer       = "peer_section"
	RuleCharset    = "charset"
)

// ValidationError names the first rule a config blob failed.
type ValidationError struct {
	Rule string
	Msg  string
}

func (e *ValidationError) Error() string { return e.Msg }

type rule struct {
	name   string
	msg    string
	reject func(string) bool
}

var (
	interfaceRe  = regexp.MustCompile(`(?m)^\[Interface\]`)
	privateKeyRe = regexp.MustCompile(`(?m)^PrivateKey\s*=`)
	peerRe       = regexp.MustCompile(`(?m)^\[Peer\]`)
	forbiddenRe  = regexp.MustCompile("[;&|`$]")
)

// Rules run in order and the first failure wins.
var rules = []rule{
	{RuleEmpty, "empty configuration", func(s string) bool { return s == "" }},
	{RuleInterface, "missing [Interface] section", func(s string) bool { return !interfaceRe.MatchString(s) }},
	{RulePrivateKey, "missing PrivateKey", func(s string) bool { return !privateKeyRe.MatchString(s) }},
	{RulePeer, "missing [Peer] section", func(s string) bool { return !peerRe.MatchString(s) }},
	{RuleCharset, "invalid characters in config", forbiddenRe.MatchString},
}

// Validate checks that blob looks like a wg-quick client config and carries
// no shell metacharacters. It is a syntactic allow-list, not a full parser.
// The returned string is the trimmed blob to be written.
func Validate(blob string) (string, error) {
	trimmed := strings.TrimSpace(blob)
	for _, r := range rules {
		if r.reject(trimmed) {
			return "", &ValidationError{Rule: r.name, Msg: r.msg}
		}
	}
	return trimmed, nil
}
