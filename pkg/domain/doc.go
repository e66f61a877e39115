/*
Package domain contains the core domain models for the Arbor engine.

It defines the fundamental entities of the workflow graph: Nodes, Edges, the
Graph topology, the open key-value State threaded through a run, and the Run
record with its append-only execution log. This package is kept pure and free
of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Graph: the registered topology of nodes and edges plus an entry point.
  - Node: a named state-transform step.
  - Edge: a directed, optionally-conditioned link between two nodes;
    declaration order breaks ties when several edges match at once.
  - State: the open key-value data threaded through a run.
  - Run: one execution instance of a Graph, holding owned state, status,
    and the log of executed steps.
*/
package domain
