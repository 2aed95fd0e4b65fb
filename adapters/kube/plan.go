package kube

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// PlanAction classifies what happened to one resource between two renderings.
type PlanAction string

const (
	PlanAdded     PlanAction = "Added"
	PlanRemoved   PlanAction = "Removed"
	PlanChanged   PlanAction = "Changed"
	PlanUnchanged PlanAction = "Unchanged"
)

// PlanEntry describes one resource identity (kind+namespace+name) and the
// action applied to it. Fields lists dotted paths of changed fields, e.g.
// spec.template.spec.containers[0].image.
type PlanEntry struct {
	Kind      string
	Namespace string
	Name      string
	Action    PlanAction
	Fields    []string
}

// ID returns the resource identity as kind/name or kind/namespace/name.
func (e PlanEntry) ID() string {
	if e.Namespace == "" {
		return e.Kind + "/" + e.Name
	}
	return e.Kind + "/" + e.Namespace + "/" + e.Name
}

// Plan is the structured result of comparing two rendered manifest sets.
// Entries are sorted by kind, namespace, name.
type Plan struct {
	Entries []PlanEntry
}

// Changed reports whether the plan contains anything but Unchanged entries.
func (p *Plan) Changed() bool {
	for _, e := range p.Entries {
		if e.Action != PlanUnchanged {
			return true
		}
	}
	return false
}

// String renders the plan one entry per line: +/-/~/= followed by identity
// and, for Changed entries, the changed field paths.
func (p *Plan) String() string {
	var b strings.Builder
	for _, e := range p.Entries {
		switch e.Action {
		case PlanAdded:
			fmt.Fprintf(&b, "+ %s\n", e.ID())
		case PlanRemoved:
			fmt.Fprintf(&b, "- %s\n", e.ID())
		case PlanChanged:
			fmt.Fprintf(&b, "~ %s (%s)\n", e.ID(), strings.Join(e.Fields, ", "))
		default:
			fmt.Fprintf(&b, "= %s\n", e.ID())
		}
	}
	return b.String()
}

type resourceKey struct {
	kind      string
	namespace string
	name      string
}

// DiffManifests compares two multi-document YAML manifests and enumerates,
// per resource identity, whether it was Added, Removed, Changed (with field
// paths) or Unchanged. Both sides must come from the same YAML round-trip so
// scalar typing is uniform.
func DiffManifests(previous, next string) (*Plan, error) {
	prevDocs, err := ParseManifest(previous)
	if err != nil {
		return nil, fmt.Errorf("previous manifest: %w", err)
	}
	nextDocs, err := ParseManifest(next)
	if err != nil {
		return nil, fmt.Errorf("next manifest: %w", err)
	}

	prevByKey, err := indexByKey(prevDocs)
	if err != nil {
		return nil, fmt.Errorf("previous manifest: %w", err)
	}
	nextByKey, err := indexByKey(nextDocs)
	if err != nil {
		return nil, fmt.Errorf("next manifest: %w", err)
	}

	keys := map[resourceKey]struct{}{}
	for k := range prevByKey {
		keys[k] = struct{}{}
	}
	for k := range nextByKey {
		keys[k] = struct{}{}
	}

	plan := &Plan{}
	for k := range keys {
		entry := PlanEntry{Kind: k.kind, Namespace: k.namespace, Name: k.name}
		prevDoc, inPrev := prevByKey[k]
		nextDoc, inNext := nextByKey[k]
		switch {
		case !inPrev:
			entry.Action = PlanAdded
		case !inNext:
			entry.Action = PlanRemoved
		default:
			fields := diffFields(prevDoc, nextDoc)
			if len(fields) == 0 {
				entry.Action = PlanUnchanged
			} else {
				entry.Action = PlanChanged
				entry.Fields = fields
			}
		}
		plan.Entries = append(plan.Entries, entry)
	}

	sort.Slice(plan.Entries, func(i, j int) bool {
		a, b := plan.Entries[i], plan.Entries[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		return a.Name < b.Name
	})
	return plan, nil
}

func indexByKey(docs []map[string]any) (map[resourceKey]map[string]any, error) {
	out := make(map[resourceKey]map[string]any, len(docs))
	for i, doc := range docs {
		kind, _ := doc["kind"].(string)
		if kind == "" {
			return nil, fmt.Errorf("document %d has no kind", i+1)
		}
		meta, _ := doc["metadata"].(map[string]any)
		name, _ := meta["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("document %d (%s) has no metadata.name", i+1, kind)
		}
		ns, _ := meta["namespace"].(string)
		key := resourceKey{kind: kind, namespace: ns, name: name}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("duplicate resource identity %s/%s", kind, name)
		}
		out[key] = doc
	}
	return out, nil
}

// diffFields returns the sorted dotted field paths where the two documents
// differ, collected through a cmp.Reporter.
func diffFields(prev, next map[string]any) []string {
	c := &fieldCollector{seen: map[string]struct{}{}}
	cmp.Equal(prev, next, cmp.Reporter(c))
	fields := make([]string, 0, len(c.seen))
	for f := range c.seen {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// fieldCollector records the path of every reported difference.
type fieldCollector struct {
	path cmp.Path
	seen map[string]struct{}
}

func (c *fieldCollector) PushStep(ps cmp.PathStep) { c.path = append(c.path, ps) }

func (c *fieldCollector) Report(rs cmp.Result) {
	if !rs.Equal() {
		c.seen[renderPath(c.path)] = struct{}{}
	}
}

func (c *fieldCollector) PopStep() { c.path = c.path[:len(c.path)-1] }

// renderPath converts a cmp.Path into a dotted field path with slice indexes,
// ignoring type-assertion steps introduced by interface-typed map values.
func renderPath(path cmp.Path) string {
	var b strings.Builder
	for _, ps := range path {
		switch x := ps.(type) {
		case cmp.MapIndex:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			fmt.Fprintf(&b, "%v", x.Key())
		case cmp.SliceIndex:
			idx := x.Key()
			if idx < 0 {
				// element inserted or removed; indexes differ between sides
				xi, yi := x.SplitKeys()
				idx = xi
				if idx < 0 {
					idx = yi
				}
			}
			fmt.Fprintf(&b, "[%d]", idx)
		}
	}
	return b.String()
}
