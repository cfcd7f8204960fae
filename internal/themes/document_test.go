package themes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(url string) ThemeItem {
	return ThemeItem{URL: url}
}

func intp(i int) *int { return &i }

func testDocument() *Document {
	return &Document{
		Themes: ThemesSection{
			Items: []ThemeItem{item("/theme/a"), item("/theme/b"), item("/theme/c")},
			Groups: []ThemeGroup{
				{Title: "first", Items: []ThemeItem{item("/theme/g0a"), item("/theme/g0b")}},
				{Title: "second", Items: []ThemeItem{item("/theme/g1a")}},
			},
		},
	}
}

func urls(items []ThemeItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.URL)
	}
	return out
}

func TestMapNameFromURL(t *testing.T) {
	assert.Equal(t, "mymap", MapNameFromURL("/theme/mymap"))
	assert.Equal(t, "mymap", MapNameFromURL("mymap"))
	assert.Equal(t, "", MapNameFromURL("/theme/"))
}

func TestItemAddressing(t *testing.T) {
	doc := testDocument()

	found, err := doc.Item(1, nil)
	require.NoError(t, err)
	assert.Equal(t, "/theme/b", found.URL)

	found, err = doc.Item(1, intp(0))
	require.NoError(t, err)
	assert.Equal(t, "/theme/g0b", found.URL)

	_, err = doc.Item(3, nil)
	assert.ErrorIs(t, err, ErrItemNotFound)
	_, err = doc.Item(0, intp(2))
	assert.ErrorIs(t, err, ErrGroupNotFound)
	_, err = doc.Item(-1, nil)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestAppendItem(t *testing.T) {
	doc := testDocument()

	require.NoError(t, doc.AppendItem(item("/theme/d"), nil))
	assert.Equal(t, []string{"/theme/a", "/theme/b", "/theme/c", "/theme/d"}, urls(doc.Themes.Items))

	require.NoError(t, doc.AppendItem(item("/theme/g1b"), intp(1)))
	assert.Equal(t, []string{"/theme/g1a", "/theme/g1b"}, urls(doc.Themes.Groups[1].Items))

	assert.ErrorIs(t, doc.AppendItem(item("/x"), intp(5)), ErrGroupNotFound)
}

func TestReplaceItem(t *testing.T) {
	doc := testDocument()

	previous, err := doc.ReplaceItem(0, nil, item("/theme/new"))
	require.NoError(t, err)
	assert.Equal(t, "/theme/a", previous.URL)
	assert.Equal(t, "/theme/new", doc.Themes.Items[0].URL)

	_, err = doc.ReplaceItem(9, nil, item("/x"))
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveItem(t *testing.T) {
	doc := testDocument()

	removed, err := doc.RemoveItem(1, nil)
	require.NoError(t, err)
	assert.Equal(t, "/theme/b", removed.URL)
	assert.Equal(t, []string{"/theme/a", "/theme/c"}, urls(doc.Themes.Items))

	removed, err = doc.RemoveItem(0, intp(1))
	require.NoError(t, err)
	assert.Equal(t, "/theme/g1a", removed.URL)
	assert.Empty(t, doc.Themes.Groups[1].Items)
}

func TestMoveItemSwapsAdjacent(t *testing.T) {
	doc := testDocument()

	require.NoError(t, doc.MoveItem(1, nil, MoveUp))
	assert.Equal(t, []string{"/theme/b", "/theme/a", "/theme/c"}, urls(doc.Themes.Items))

	require.NoError(t, doc.MoveItem(1, nil, MoveDown))
	assert.Equal(t, []string{"/theme/b", "/theme/c", "/theme/a"}, urls(doc.Themes.Items))
}

func TestMoveItemBoundaries(t *testing.T) {
	doc := testDocument()

	// moving the first item up is a no-op
	require.NoError(t, doc.MoveItem(0, nil, MoveUp))
	assert.Equal(t, []string{"/theme/a", "/theme/b", "/theme/c"}, urls(doc.Themes.Items))

	// moving the last item down is a no-op
	require.NoError(t, doc.MoveItem(2, nil, MoveDown))
	assert.Equal(t, []string{"/theme/a", "/theme/b", "/theme/c"}, urls(doc.Themes.Items))

	assert.ErrorIs(t, doc.MoveItem(3, nil, MoveUp), ErrItemNotFound)
}

func TestMoveItemInGroup(t *testing.T) {
	doc := testDocument()

	require.NoError(t, doc.MoveItem(0, intp(0), MoveDown))
	assert.Equal(t, []string{"/theme/g0b", "/theme/g0a"}, urls(doc.Themes.Groups[0].Items))

	// untouched lists stay untouched
	assert.Equal(t, []string{"/theme/a", "/theme/b", "/theme/c"}, urls(doc.Themes.Items))
	assert.Equal(t, []string{"/theme/g1a"}, urls(doc.Themes.Groups[1].Items))
}

func TestGroupOperations(t *testing.T) {
	doc := testDocument()

	doc.AddGroup()
	require.Len(t, doc.Themes.Groups, 3)
	assert.Equal(t, "new group", doc.Themes.Groups[2].Title)
	assert.Empty(t, doc.Themes.Groups[2].Items)

	require.NoError(t, doc.RenameGroup(2, "renamed"))
	assert.Equal(t, "renamed", doc.Themes.Groups[2].Title)
	assert.ErrorIs(t, doc.RenameGroup(7, "x"), ErrGroupNotFound)

	removed, err := doc.RemoveGroup(0)
	require.NoError(t, err)
	assert.Equal(t, "first", removed.Title)
	assert.Equal(t, "second", doc.Themes.Groups[0].Title)
}

func TestMoveGroup(t *testing.T) {
	doc := testDocument()

	require.NoError(t, doc.MoveGroup(0, MoveUp)) // no-op at the top
	assert.Equal(t, "first", doc.Themes.Groups[0].Title)

	require.NoError(t, doc.MoveGroup(1, MoveDown)) // no-op at the bottom
	assert.Equal(t, "second", doc.Themes.Groups[1].Title)

	require.NoError(t, doc.MoveGroup(1, MoveUp))
	assert.Equal(t, "second", doc.Themes.Groups[0].Title)
	assert.Equal(t, "first", doc.Themes.Groups[1].Title)

	assert.ErrorIs(t, doc.MoveGroup(5, MoveUp), ErrGroupNotFound)
}
