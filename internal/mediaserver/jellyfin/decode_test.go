package jellyfin

import (
	"encoding/json"
	"testing"

	"github.com/mmcdole/jellyshelf/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeListingShapes(t *testing.T) {
	bare := `[{"Id":"a","Name":"A","Type":"Movie"},{"Id":"b","Name":"B","Type":"Movie"}]`
	wrapper := `{"Items":[{"Id":"a","Name":"A","Type":"Movie"},{"Id":"b","Name":"B","Type":"Movie"}],
		"TotalRecordCount":40,"BaselineItemName":"Because you watched X"}`
	listOfWrapper := "[" + wrapper + "]"

	l, err := DecodeListing([]byte(bare), domain.ViewOptions{})
	require.NoError(t, err)
	assert.Len(t, l.Items, 2)
	assert.Equal(t, 2, l.TotalCount, "total defaults to item count when omitted")

	for name, body := range map[string]string{"wrapper": wrapper, "list of wrapper": listOfWrapper} {
		t.Run(name, func(t *testing.T) {
			l, err := DecodeListing([]byte(body), domain.ViewOptions{})
			require.NoError(t, err)
			require.Len(t, l.Items, 2)
			assert.Equal(t, 40, l.TotalCount)
			assert.Equal(t, "Because you watched X", l.BaselineItemName)
			assert.Equal(t, "Because you watched X", l.Items[1].BaselineItemName)
			assert.Equal(t, "a", l.Items[0].ID)
		})
	}
}

func TestDecodeListingFromItemsResponse(t *testing.T) {
	total := 0
	body, err := json.Marshal(ItemsResponse{Items: []Item{}, TotalRecordCount: &total})
	require.NoError(t, err)

	l, err := DecodeListing(body, domain.ViewOptions{})
	require.NoError(t, err)
	assert.NotNil(t, l.Items)
	assert.Empty(t, l.Items)
	assert.Equal(t, 0, l.TotalCount)
}

func TestDecodeListingDropsDuplicates(t *testing.T) {
	body := `{"Items":[{"Id":"a","Name":"first"},{"Id":"b","Name":"B"},{"Id":"a","Name":"second"}]}`
	l, err := DecodeListing([]byte(body), domain.ViewOptions{})
	require.NoError(t, err)
	require.Len(t, l.Items, 2)
	assert.Equal(t, "first", l.Items[0].Name)
	assert.Equal(t, 2, l.TotalCount)
}

func TestDecodeListingMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"not json":      `<html>oops</html>`,
		"missing id":    `[{"Name":"no id"}]`,
		"blank id":      `{"Items":[{"Id":"","Name":"blank"}]}`,
		"object":        `{"Message":"nope"}`,
		"scalar":        `42`,
		"truncated":     `[{"Id":"a"`,
		"wrong id type": `[{"Id":7}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeListing([]byte(body), domain.ViewOptions{})
			assert.ErrorIs(t, err, domain.ErrMalformedResponse)
		})
	}
}

func TestDecodeListingAppliesViewOptions(t *testing.T) {
	body := `[{"Id":"e","Name":"Pilot","Type":"Episode","ParentIndexNumber":2,"IndexNumber":3,
		"ImageTags":{"Primary":"t"}}]`
	l, err := DecodeListing([]byte(body), domain.ViewOptions{
		Server:           "http://srv",
		AddSeasonNumber:  true,
		AddEpisodeNumber: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "S02E03 - Pilot", l.Items[0].Name)
	assert.Equal(t, "http://srv/Items/e/Images/Primary/0?Format=original&Tag=t", l.Items[0].Art.Thumb)
}
