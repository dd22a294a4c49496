package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElement_InsertSplitsAndRemoveMerges(t *testing.T) {
	para := NewElement(NameParagraph, nil, NewText("héllo"))
	img := NewElement(NameImage, nil)

	require.NoError(t, para.InsertAt(2, img))
	require.Equal(t, 3, para.ChildCount())
	assert.Equal(t, "hé", para.Child(0).(*Text).Data)
	assert.Equal(t, "llo", para.Child(2).(*Text).Data)
	assert.Equal(t, 6, para.MaxOffset())
	assert.Equal(t, 2, para.OffsetOf(img))
	assert.Same(t, para, img.Parent())

	off, err := para.RemoveChild(img)
	require.NoError(t, err)
	assert.Equal(t, 2, off)
	require.Equal(t, 1, para.ChildCount())
	assert.Equal(t, "héllo", para.Child(0).(*Text).Data)
	assert.Nil(t, img.Parent())

	_, err = para.RemoveChild(img)
	assert.ErrorIs(t, err, ErrNodeDetached)
}

func TestElement_InsertAtRejects(t *testing.T) {
	para := NewElement(NameParagraph, nil, NewText("ab"))
	assert.ErrorIs(t, para.InsertAt(3, NewElement(NameImage, nil)), ErrInvalidPosition)

	attached := NewElement(NameImage, nil)
	require.NoError(t, para.InsertAt(0, attached))
	assert.ErrorIs(t, para.InsertAt(1, attached), ErrInvalidPosition)
	assert.Equal(t, "ab", para.Child(1).(*Text).Data, "rejected inserts leave text untouched")
}

func TestElement_Attributes(t *testing.T) {
	img := NewElement(NameImage, map[string]any{AttrWidth: "10px", AttrUploadID: 7})

	assert.Equal(t, "7", img.StringAttribute(AttrUploadID))
	assert.Equal(t, "", img.StringAttribute(AttrSrc))
	assert.Equal(t, []string{AttrUploadID, AttrWidth}, img.AttributeKeys())

	attrs := img.Attributes()
	attrs[AttrWidth] = "changed"
	assert.Equal(t, "10px", img.StringAttribute(AttrWidth), "Attributes returns a copy")

	img.SetAttribute(AttrWidth, nil)
	assert.False(t, img.HasAttribute(AttrWidth))

	assert.True(t, img.IsCentered())
	img.SetAttribute(AttrImageStyle, StyleFull)
	assert.True(t, img.IsCentered())
	img.SetAttribute(AttrImageStyle, "alignLeft")
	assert.False(t, img.IsCentered())
}

func TestPosition(t *testing.T) {
	img := NewElement(NameImage, nil)
	para := NewElement(NameParagraph, nil, NewText("foo"))
	root := NewElement(NameRoot, nil, para, img)

	assert.Equal(t, []int{1}, PositionBefore(img).Path())
	assert.Equal(t, []int{0, 3}, PositionAt(para, 3).Path())
	assert.True(t, PositionAt(para, 3).IsAtEnd())
	assert.False(t, PositionAt(para, 4).IsValid())

	assert.Same(t, img, PositionAt(root, 1).NodeAfter())
	assert.Nil(t, PositionAt(para, 1).NodeAfter())
	assert.Nil(t, PositionAt(root, 2).NodeAfter())

	assert.Equal(t, []*Element{root, para}, para.Ancestors())
	assert.True(t, para.IsDescendantOf(root))
	assert.Same(t, root, img.Root())
}

func TestSelection_SelectedElement(t *testing.T) {
	img := NewElement(NameImage, nil)
	para := NewElement(NameParagraph, nil, NewText("foo"))
	root := NewElement(NameRoot, nil, para, img)

	assert.Same(t, img, On(img).SelectedElement())
	assert.Same(t, img, Range(PositionAfter(img), PositionBefore(img)).SelectedElement(), "backward")
	assert.Nil(t, Range(PositionAt(para, 0), PositionAt(para, 1)).SelectedElement(), "text")
	assert.Nil(t, Collapsed(PositionAt(root, 1)).SelectedElement())
	assert.Nil(t, Range(PositionAt(root, 0), PositionAt(root, 2)).SelectedElement())
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := LifecycleHooks{OnUploadStart: func(context.Context, *UploadEvent) { calls = append(calls, "a") }}
	b := LifecycleHooks{
		OnUploadStart:  func(context.Context, *UploadEvent) { calls = append(calls, "b") },
		OnResizeCommit: func(context.Context, *ResizeEvent) { calls = append(calls, "commit") },
	}

	merged := a.Merge(b)
	merged.OnUploadStart(context.Background(), NewUploadEvent(EventUploadStart, "t1"))
	merged.OnResizeCommit(context.Background(), NewResizeEvent(EventResizeCommit, nil, 10, 5))

	assert.Equal(t, []string{"a", "b", "commit"}, calls)
	assert.Nil(t, merged.OnUploadFail)
}
