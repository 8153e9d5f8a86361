package authz

import (
	"context"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"github.com/perseusdefend/perseus/pkg/tokenx"
)

// RoleList names the roles allowed to pass a rule.
type RoleList []tokenx.Role

// Contains reports whether role is in the list.
func (l RoleList) Contains(role tokenx.Role) bool {
	return slices.Contains(l, role)
}

// Predicate decides access for routes where a role check is not enough,
// e.g. "admins or the user themself". Params holds the values captured
// from the route template. Returning an error means the check could not
// be evaluated, not that access is denied.
type Predicate func(ctx context.Context, id *tokenx.Identity, params map[string]string, r *http.Request) (bool, error)

// MethodAny is the fallback method key in rule maps.
const MethodAny = "*"

// template is a compiled route pattern. Bracket segments like [id]
// match exactly one path segment and capture it by name.
type template struct {
	raw    string
	re     *regexp.Regexp
	params []string
}

func compileTemplate(pattern string) *template {
	var params []string
	var b strings.Builder
	b.WriteString("^")

	for _, seg := range strings.Split(strings.Trim(pattern, "/"), "/") {
		b.WriteString("/")
		if strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]") {
			params = append(params, seg[1:len(seg)-1])
			b.WriteString("([^/]+)")
			continue
		}
		b.WriteString(regexp.QuoteMeta(seg))
	}
	b.WriteString("/?$")

	return &template{raw: pattern, re: regexp.MustCompile(b.String()), params: params}
}

func (t *template) match(path string) (map[string]string, bool) {
	m := t.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}

	if len(t.params) == 0 {
		return nil, true
	}
	params := make(map[string]string, len(t.params))
	for i, name := range t.params {
		params[name] = m[i+1]
	}
	return params, true
}

type publicRoute struct {
	method string
	path   string
}

type roleRule struct {
	tpl     *template
	methods map[string]RoleList
}

type customRule struct {
	tpl     *template
	methods map[string]Predicate
}

// Table is the declarative authorization policy. Resolution runs the
// tiers in order: public exact matches, then role rules, then custom
// rules. Anything unmatched falls closed to admin-only.
type Table struct {
	public         []publicRoute
	publicPrefixes []string
	roles          []roleRule
	custom         []customRule

	// defaultRoles guards routes no rule names.
	defaultRoles RoleList
}

func NewTable() *Table {
	return &Table{defaultRoles: RoleList{tokenx.RoleAdmin}}
}

// Public registers an exact-path route that skips authentication.
// Method may be MethodAny.
func (t *Table) Public(method, path string) *Table {
	t.public = append(t.public, publicRoute{method: method, path: strings.TrimSuffix(path, "/")})
	return t
}

// PublicPrefix opens a whole path subtree regardless of method. Meant
// for non-API mounts like API documentation, not for application
// routes.
func (t *Table) PublicPrefix(prefix string) *Table {
	t.publicPrefixes = append(t.publicPrefixes, prefix)
	return t
}

// Role registers a role rule for a route template. The methods map may
// carry a MethodAny fallback.
func (t *Table) Role(pattern string, methods map[string]RoleList) *Table {
	t.roles = append(t.roles, roleRule{tpl: compileTemplate(pattern), methods: methods})
	return t
}

// Custom registers a predicate rule for a route template.
func (t *Table) Custom(pattern string, methods map[string]Predicate) *Table {
	t.custom = append(t.custom, customRule{tpl: compileTemplate(pattern), methods: methods})
	return t
}

// Resolution is the matched policy for one request.
type Resolution struct {
	// Public short-circuits authentication entirely.
	Public bool

	// Roles is the allow-list when a role rule (or the fail-closed
	// default) matched.
	Roles RoleList

	// Predicate is set instead of Roles when a custom rule matched.
	Predicate Predicate

	// Params captured from the route template.
	Params map[string]string
}

// Resolve finds the policy for a method and path. First match in tier
// order wins; a matched template with no entry for the method falls
// through to the next tier.
func (t *Table) Resolve(method, path string) Resolution {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		path = "/"
	}

	for _, p := range t.public {
		if p.path == path && (p.method == MethodAny || p.method == method) {
			return Resolution{Public: true}
		}
	}

	for _, prefix := range t.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return Resolution{Public: true}
		}
	}

	for _, rule := range t.roles {
		params, ok := rule.tpl.match(path)
		if !ok {
			continue
		}
		if roles, ok := methodLookup(rule.methods, method); ok {
			return Resolution{Roles: roles, Params: params}
		}
	}

	for _, rule := range t.custom {
		params, ok := rule.tpl.match(path)
		if !ok {
			continue
		}
		if pred, ok := methodLookup(rule.methods, method); ok {
			return Resolution{Predicate: pred, Params: params}
		}
	}

	return Resolution{Roles: t.defaultRoles}
}

func methodLookup[V any](m map[string]V, method string) (V, bool) {
	if v, ok := m[method]; ok {
		return v, true
	}
	v, ok := m[MethodAny]
	return v, ok
}
