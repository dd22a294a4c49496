/*
Package easel inserts media into a schema-constrained document and lets users
resize it, keeping the document tree and its rendered projection consistent.

# Concept

An Editor owns one document (pkg/model). Every change goes through a named
batch; observers and the conversion dispatcher see whole batches only. Two
features are attached to the document:

  - Upload: resolves where a media element may go from the current selection,
    inserts a placeholder carrying an uploadId and binds it to an asynchronous
    transfer. Completion swaps the uploadId for src/srcset; failure or abort
    removes the placeholder. Edits made in the meantime are never overwritten.
  - Resize: a pointer-driven state machine (Idle, Active, Committing,
    Cancelling) that previews sizes on the projection only and writes the width
    attribute in a single batch when the drag is committed.

The projection follows the width attribute through pkg/presentation, which is
the only code mapping document attributes to rendered styles and classes.

# Usage

	reg := memory.NewRegistry()
	ed, err := easel.New(easel.WithUploadRegistry(reg))
	if err != nil {
		log.Fatal(err)
	}
	defer ed.Close(ctx)

	_ = ed.SetData("<paragraph>fo[]o</paragraph>")
	res := ed.Upload(ctx, memory.NewFile("cat.png", "image/png", data))
	// <image uploadId="..."></image>[]<paragraph>foo</paragraph>

Transfers created by pkg/adapters/file run in the background and post their
callbacks to an event loop; run the loop on the goroutine that owns the editor.
*/
package easel
