package cfntheory

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// Token is a value known only once the template is deployed: a Ref, a
// Fn::GetAtt or a pseudo parameter. Tokens may be stored directly in
// properties or embedded in strings through String.
type Token struct {
	ref *tokenRef
}

type tokenRef struct {
	key       string
	target    *Node
	attribute string
	pseudo    string
}

var tokenPattern = regexp.MustCompile(`\$\{Token\[[A-Za-z0-9_.]+\]\}`)

var tokens = struct {
	sync.Mutex
	seq   int
	byKey map[string]*tokenRef
}{byKey: make(map[string]*tokenRef)}

func newToken(label string, ref *tokenRef) Token {
	tokens.Lock()
	defer tokens.Unlock()
	tokens.seq++
	ref.key = fmt.Sprintf("${Token[%s.%d]}", tokenLabel(label), tokens.seq)
	tokens.byKey[ref.key] = ref
	return Token{ref: ref}
}

func lookupToken(key string) (*tokenRef, bool) {
	tokens.Lock()
	defer tokens.Unlock()
	ref, ok := tokens.byKey[key]
	return ref, ok
}

func tokenLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, label)
}

func pseudoToken(name string) Token {
	return newToken(strings.ReplaceAll(name, "::", "."), &tokenRef{pseudo: name})
}

// Pseudo parameters.
var (
	AccountID        = pseudoToken("AWS::AccountId")
	NotificationARNs = pseudoToken("AWS::NotificationARNs")
	NoValue          = pseudoToken("AWS::NoValue")
	Partition        = pseudoToken("AWS::Partition")
	Region           = pseudoToken("AWS::Region")
	StackID          = pseudoToken("AWS::StackId")
	StackName        = pseudoToken("AWS::StackName")
	URLSuffix        = pseudoToken("AWS::URLSuffix")
)

// String returns a placeholder that synthesis replaces with the token's
// intrinsic, so tokens survive string concatenation.
func (t Token) String() string {
	if t.ref == nil {
		return ""
	}
	return t.ref.key
}

// Resolvable marks tokens as deferred values for property validation.
func (t Token) Resolvable() bool { return t.ref != nil }

func (t Token) IsZero() bool { return t.ref == nil }

// MarshalJSON encodes the placeholder. Synthesized templates never contain
// it; this only affects values logged or encoded before synthesis.
func (t Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// ContainsTokens reports whether s embeds any token placeholder.
func ContainsTokens(s string) bool {
	return tokenPattern.MatchString(s)
}
