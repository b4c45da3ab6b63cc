package neo4j

import "fmt"

// Traversal queries come from this closed template table, keyed by
// (max_hops, typed). Queries are never assembled from caller input: every
// value reaches the store as a driver parameter. Cypher cannot parameterize
// variable-length bounds, which is the other reason each hop count has its
// own template.
type templateKey struct {
	MaxHops int
	Typed   bool
}

const (
	minHops = 1
	maxHops = 3
)

// visibleExpr is the owner-scope predicate applied to a node n. An entity is
// visible to $owner_id when it owns it or sits on the share allow-list.
const visibleExpr = "(%[1]s.owner_id = $owner_id OR $owner_id IN coalesce(%[1]s.shared_with, []))"

func buildTraversalQuery(hops int, typed bool) string {
	typeClause := ""
	if typed {
		typeClause = "\n  AND all(rel IN relationships(path) WHERE type(rel) IN $allow_types)"
	}
	return fmt.Sprintf(`
UNWIND $seed_ids AS seed_id
MATCH (s:Entity {id: seed_id})
WHERE `+visibleExpr+`
MATCH path = (s)-[*1..%[2]d]-(t:Entity)
WHERE t.id <> s.id
  AND all(n IN nodes(path) WHERE `+ownerScopeAll+`)%[3]s
RETURN seed_id,
       t.id AS entity_id,
       t.entity_type AS entity_type,
       t.owner_id AS owner_id,
       coalesce(t.shared_with, []) AS shared_with,
       length(path) AS hop_count,
       [rel IN relationships(path) | type(rel)] AS path_types
ORDER BY hop_count ASC
LIMIT $limit
`, "s", hops, typeClause)
}

const ownerScopeAll = "(n.owner_id = $owner_id OR $owner_id IN coalesce(n.shared_with, []))"

var traversalTemplates = func() map[templateKey]string {
	templates := make(map[templateKey]string)
	for hops := minHops; hops <= maxHops; hops++ {
		templates[templateKey{MaxHops: hops, Typed: false}] = buildTraversalQuery(hops, false)
		templates[templateKey{MaxHops: hops, Typed: true}] = buildTraversalQuery(hops, true)
	}
	return templates
}()

// traversalQuery resolves the template for the given hop bound and filter
// shape. Out-of-range hop counts are clamped into the supported window rather
// than synthesizing a new query.
func traversalQuery(hops int, typed bool) string {
	if hops < minHops {
		hops = minHops
	}
	if hops > maxHops {
		hops = maxHops
	}
	return traversalTemplates[templateKey{MaxHops: hops, Typed: typed}]
}
