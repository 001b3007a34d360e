package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reconcile-cli/internal/crm"
)

func listSource() *fakeSource {
	industry := crm.Field{ID: "f-ind", Name: "Industry", Type: crm.TypeDropDown,
		Options: []crm.Option{{ID: "i1", Name: "Brewery"}, {ID: "i2", Name: "Winery"}}}
	return &fakeSource{
		fields: []crm.Field{industry, {ID: "f-notes", Name: "Notes"}},
		records: []crm.Record{
			{ID: "t1", Name: "Schlafly", Status: "Engaged", Values: map[string]any{"f-ind": "i1"}},
			{ID: "t2", Name: "Stone Hill", Status: "Engaged", Values: map[string]any{"f-ind": "i2", "f-notes": "no brew"}},
			{ID: "t3", Name: "Side Project", Status: "Engaged", Tags: []string{"Craft Brewer"}},
			{ID: "t4", Name: "Perennial Brewing", Status: "Engaged"},
			{ID: "t5", Name: "Urban Chestnut Brewing", Status: "Lead"},
		},
	}
}

func TestList_All(t *testing.T) {
	res, err := List(context.Background(), listSource(), ListOptions{Status: "Engaged"})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Count)
	assert.Equal(t, []string{"status:Engaged"}, res.Items[0].MatchedBy)
}

func TestList_Heuristic(t *testing.T) {
	res, err := List(context.Background(), listSource(), ListOptions{Status: "Engaged", Heuristic: true})
	require.NoError(t, err)
	require.Equal(t, 3, res.Count)

	got := map[string][]string{}
	for _, it := range res.Items {
		got[it.ID] = it.MatchedBy
	}
	assert.Equal(t, map[string][]string{
		"t1": {"fields"},
		"t3": {"tags"},
		"t4": {"name"},
	}, got)
}

func TestList_FieldValue(t *testing.T) {
	res, err := List(context.Background(), listSource(), ListOptions{Field: "industry", Value: "WINE"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "t2", res.Items[0].ID)
	assert.Equal(t, []string{"field:Industry"}, res.Items[0].MatchedBy)

	res, err = List(context.Background(), listSource(), ListOptions{Field: "Missing", Value: "x"})
	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.NotNil(t, res.Items)
}

func TestFieldSearch(t *testing.T) {
	fields := []crm.Field{
		{ID: "f1", Name: "Brewery Size", Type: "short_text"},
		{ID: "f2", Name: "Industry", Type: crm.TypeDropDown, Options: []crm.Option{{ID: "a", Name: "Brewpub"}, {ID: "b", Name: "Cidery"}}},
		{ID: "f3", Name: "City"},
	}
	hits := FieldSearch(fields, "")
	require.Len(t, hits, 2)
	assert.Equal(t, FieldHit{ID: "f1", Name: "Brewery Size", Type: "short_text", Where: WhereFieldName}, hits[0])
	assert.Equal(t, FieldHit{ID: "f2", Name: "Industry", Type: crm.TypeDropDown, Option: "Brewpub", Where: WhereOption}, hits[1])

	assert.Len(t, FieldSearch(fields, "CIDER"), 1)
	assert.Empty(t, FieldSearch(fields, "winery"))
}

func TestFieldSearch_OneHitPerField(t *testing.T) {
	fields := []crm.Field{
		{ID: "f1", Name: "Brew Type", Type: crm.TypeDropDown, Options: []crm.Option{{ID: "a", Name: "Brewpub"}, {ID: "b", Name: "Microbrewery"}}},
		{ID: "f2", Name: "Segment", Type: crm.TypeDropDown, Options: []crm.Option{{ID: "c", Name: "Brewpub"}, {ID: "d", Name: "Brewery"}}},
	}
	hits := FieldSearch(fields, "brew")
	require.Len(t, hits, 2)
	assert.Equal(t, FieldHit{ID: "f1", Name: "Brew Type", Type: crm.TypeDropDown, Where: WhereFieldName}, hits[0])
	assert.Equal(t, FieldHit{ID: "f2", Name: "Segment", Type: crm.TypeDropDown, Option: "Brewpub", Where: WhereOption}, hits[1])
}

func TestFields_NeverNil(t *testing.T) {
	fields, err := Fields(context.Background(), &fakeSource{})
	require.NoError(t, err)
	assert.NotNil(t, fields)
}
