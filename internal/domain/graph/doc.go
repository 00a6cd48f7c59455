// Package graph implements the domain layer for editable node graphs.
//
// The package owns the graph topology and the port reconciliation engine. It has
// no knowledge of file formats, databases or rendering; the document and sqlite
// packages build on top of it.
//
// # Core Types
//
// GUID is the 128-bit identifier every element carries. Random GUIDs identify
// user-created elements; content GUIDs (derived from a stable description) identify
// ports so that rebuilding a node finds the same port again.
//
// Graph is the container. It owns nodes, context nodes and their blocks, wires,
// variable and portal declarations, sections, groups, sticky notes and placemats.
// Every element is reachable by GUID through the graph's Registry.
//
// Node owns two OrderedPortCollection values (inputs and outputs) and the constants
// attached to its input ports. Its ports are produced by a Definition; calling
// Node.Define reconciles the declared ports against the existing ones:
//   - ports with a matching content GUID or unique name are reused in place
//   - expandable ports materialize their sub-ports right after the parent
//   - obsolete ports are retired; their wires reattach to a compatible port or
//     to a synthesized missing port so no wire is lost
//   - constants are pruned and type-checked
//
// Wire connects two ports by PortReference (node GUID, direction, unique name), so
// wires survive the replacement of port objects. The WireIndex maps ports to their
// incident wires and is rebuilt lazily.
//
// # Changes
//
// Every mutation is recorded into the ChangeDescription on top of the graph's change
// scope stack. Nested scopes fold into their parent; the outermost description is
// published when its scope closes. A separate dirty scope stack decides whether the
// graph must be marked modified and can be blocked while loading.
//
// # Placeholders
//
// When a persisted element cannot be materialized (unknown node kind, renamed data
// type, malformed data) the loader substitutes a Placeholder carrying the original
// GUID, list index and raw payload, so the topology and unresolved data survive a
// save. MissingEntry is the persisted metadata row describing one placeholder.
package graph
