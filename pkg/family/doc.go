// Package family models a genealogy diagram as persons, unions and the
// edges between them.
//
// # Model
//
// A [Graph] holds two insertion-ordered slices: [Node] values and [Edge]
// values. Nodes are tagged with a [NodeKind]:
//
//   - [KindPerson] nodes carry a [Person] payload (name, birth, death, gender).
//   - [KindUnion] nodes carry a [Union] payload: the sorted pair of partner
//     IDs and the dedup key derived from it.
//
// Edges are tagged with an [EdgeKind]. A parent edge runs from a partner to
// its union, a child edge from a union to a child, and a partner edge links
// two persons directly.
//
// # Values, not references
//
// Every operation in this package takes a Graph and returns a new one. Input
// slices are never written to, so callers can keep older graphs around as
// undo snapshots. Payload pointers may be shared between graphs; code that
// wants to change a person replaces the pointer instead of writing through it.
//
// # Invariants
//
// [FindOrCreateUnion] keeps at most one union per unordered partner pair.
// [AddChildToUnion] and [EnsureEdge] never duplicate a (source, target, kind)
// triple. [DeletePersonCascade] removes a person together with every union it
// partners and every edge touching a removed node. [WouldCreateCycle] answers
// whether adding one more ancestry edge would close a loop; callers consult it
// before committing structural changes.
//
// Identifiers come from an [IDGenerator]. [RandomIDs] produces
// "<prefix>_<base36>" identifiers, [SequentialIDs] deterministic ones.
package family
