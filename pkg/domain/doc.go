/*
Package domain contains the core domain models shared by every easel component.

It defines the document tree (Elements and Text), positions and selections anchored
to that tree, the rendered geometry primitives used by the resize interaction, and
the transfer lifecycle. This package is kept free of I/O, persistence and schema
rules; those live in the model, schema and adapters packages.

# Key Entities

  - Element: A typed node with ordered children and an attribute map.
  - Position: A (parent, offset) pair; offsets count one per element and one per rune of text.
  - Selection: An anchor and a focus Position. The focus drives insertion.
  - Box, Point: Rendered geometry, never stored in the tree.
  - TransferStatus: The lifecycle of an external upload.
*/
package domain
