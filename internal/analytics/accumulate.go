package analytics

import "sort"

// scoreGroup accumulates scores of one bucket.
type scoreGroup struct {
	sum   float64
	count int
}

func (g *scoreGroup) add(v float64) {
	g.sum += v
	g.count++
}

// mean returns nil for an empty group so that callers emit a gap, not a zero.
func (g *scoreGroup) mean() *float64 {
	if g == nil || g.count == 0 {
		return nil
	}
	m := g.sum / float64(g.count)
	return &m
}

// groupedScores is a string-keyed accumulator that remembers insertion order.
type groupedScores struct {
	keys   []string
	groups map[string]*scoreGroup
}

func newGroupedScores() *groupedScores {
	return &groupedScores{groups: make(map[string]*scoreGroup)}
}

func (g *groupedScores) add(key string, v float64) {
	grp, ok := g.groups[key]
	if !ok {
		grp = &scoreGroup{}
		g.groups[key] = grp
		g.keys = append(g.keys, key)
	}
	grp.add(v)
}

func (g *groupedScores) get(key string) *scoreGroup {
	return g.groups[key]
}

// sortedKeys returns the keys in ascending order.
func (g *groupedScores) sortedKeys() []string {
	keys := append([]string(nil), g.keys...)
	sort.Strings(keys)
	return keys
}

// userSets tracks distinct users per key.
type userSets struct {
	keys []string
	sets map[string]map[string]struct{}
}

func newUserSets() *userSets {
	return &userSets{sets: make(map[string]map[string]struct{})}
}

func (u *userSets) add(key, user string) {
	set, ok := u.sets[key]
	if !ok {
		set = make(map[string]struct{})
		u.sets[key] = set
		u.keys = append(u.keys, key)
	}
	set[user] = struct{}{}
}

func (u *userSets) sortedKeys() []string {
	keys := append([]string(nil), u.keys...)
	sort.Strings(keys)
	return keys
}
