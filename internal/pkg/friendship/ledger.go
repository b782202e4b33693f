// Package friendship holds the symmetric record of confirmed connections between users.
package friendship

import "sort"

// Ledger maps a user key to the set of that user's friends. Absent entries
// are empty sets. A Ledger is treated as immutable: operations return a new one.
type Ledger map[string]map[string]struct{}

// FromLists builds a Ledger from user → friend list pairs, dropping duplicates.
func FromLists(lists map[string][]string) Ledger {
	ledger := make(Ledger, len(lists))
	for user, friends := range lists {
		set := make(map[string]struct{}, len(friends))
		for _, f := range friends {
			if f != "" {
				set[f] = struct{}{}
			}
		}
		ledger[user] = set
	}
	return ledger
}

// ConfirmFriendship returns a copy of ledger in which a and b are friends of
// each other. Confirming an existing friendship yields an equal ledger. Empty
// keys and self-friendship leave the ledger unchanged.
func ConfirmFriendship(ledger Ledger, a, b string) Ledger {
	next := ledger.clone()
	if a == "" || b == "" || a == b {
		return next
	}
	next.add(a, b)
	next.add(b, a)
	return next
}

// IsFriend reports whether b is in a's friend set.
func IsFriend(ledger Ledger, a, b string) bool {
	_, ok := ledger[a][b]
	return ok
}

// Friends returns a's friends sorted by key.
func (l Ledger) Friends(user string) []string {
	set := l[user]
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Lists returns the ledger as user → sorted friend list.
func (l Ledger) Lists() map[string][]string {
	out := make(map[string][]string, len(l))
	for user := range l {
		out[user] = l.Friends(user)
	}
	return out
}

// Subset returns the entries for the given users only. Users without an entry
// get an empty set so that persisting the subset replaces their stored entry.
func (l Ledger) Subset(users ...string) Ledger {
	out := make(Ledger, len(users))
	for _, u := range users {
		set := make(map[string]struct{}, len(l[u]))
		for f := range l[u] {
			set[f] = struct{}{}
		}
		out[u] = set
	}
	return out
}

func (l Ledger) clone() Ledger {
	next := make(Ledger, len(l))
	for user, friends := range l {
		set := make(map[string]struct{}, len(friends))
		for f := range friends {
			set[f] = struct{}{}
		}
		next[user] = set
	}
	return next
}

func (l Ledger) add(user, friend string) {
	set, ok := l[user]
	if !ok {
		set = make(map[string]struct{})
		l[user] = set
	}
	set[friend] = struct{}{}
}
