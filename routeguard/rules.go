// Package routeguard blocks dashboard routes until session and permission
// state are ready, then enforces a static path-based permission table.
package routeguard

// Rule maps a path prefix to the permission codes that unlock it. A rule
// matches a pathname exactly or as a "pattern/" prefix; among all matching
// rules the longest pattern wins.
type Rule struct {
	Pattern string
	Perms   []string
}

// DefaultRules is the static permission table for the admin dashboard.
// Routes without a matching rule carry no permission constraint.
var DefaultRules = []Rule{
	{Pattern: "/dashboard", Perms: []string{"dashboard:view"}},
	{Pattern: "/dashboard/payments", Perms: []string{"payments:view"}},
	{Pattern: "/dashboard/gateway-test", Perms: []string{"gateway:test"}},
	{Pattern: "/dashboard/payment-methods", Perms: []string{"payment-methods:order"}},
	{Pattern: "/dashboard/history", Perms: []string{"history:view"}},
	{Pattern: "/dashboard/locations", Perms: []string{"locations:view"}},
	{Pattern: "/dashboard/roles", Perms: []string{"roles:view"}},
	{Pattern: "/dashboard/users", Perms: []string{"users:view"}},
	{Pattern: "/dashboard/users/create", Perms: []string{"users:create"}},
	{Pattern: "/dashboard/providers", Perms: []string{"providers:view"}},
	{Pattern: "/dashboard/stores", Perms: []string{"stores:view"}},
	{Pattern: "/dashboard/promotions", Perms: []string{"promotions:view"}},
	{Pattern: "/dashboard/editor", Perms: []string{"editor:use"}},
}

// Resolve returns the required permissions for a pathname via
// longest-prefix match, or nil when no rule applies (default allow).
func Resolve(pathname string, rules []Rule) []string {
	var best *Rule
	for i := range rules {
		rule := &rules[i]
		if pathname != rule.Pattern && !hasPrefixSegment(pathname, rule.Pattern) {
			continue
		}
		if best == nil || len(rule.Pattern) > len(best.Pattern) {
			best = rule
		}
	}
	if best == nil {
		return nil
	}
	return best.Perms
}

func hasPrefixSegment(pathname, pattern string) bool {
	prefix := pattern + "/"
	return len(pathname) >= len(prefix) && pathname[:len(prefix)] == prefix
}
