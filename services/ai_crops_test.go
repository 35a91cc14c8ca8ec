package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCropCards(t *testing.T) {
	text := "Here are my suggestions:\n" +
		`[{"crop":"Mustard","emoji":"🌻","score":82,"category":"Oilseed","sowing_window":"Oct-Nov",` +
		`"water_need":"low","yield_range":"1-1.5 t/ha","reasons":["Cool season","Good oil prices"]},` +
		`{"crop":"Gram","score":74,"category":"Pulse","reason":"Nitrogen fixing"},` +
		`{"emoji":"🥔","score":60}]` +
		"\nHope that helps!"

	cards := parseCropCards(text)
	require.Len(t, cards, 2)

	assert.Equal(t, "Mustard", cards[0].Crop)
	assert.Equal(t, "🌻", cards[0].Emoji)
	assert.Equal(t, 82, cards[0].Score)
	assert.Equal(t, []string{"Cool season", "Good oil prices"}, cards[0].Reasons)

	// missing fields get defaults; a single "reason" string is promoted
	assert.Equal(t, "Gram", cards[1].Crop)
	assert.Equal(t, "🌾", cards[1].Emoji)
	assert.Equal(t, "medium", cards[1].WaterNeed)
	assert.Equal(t, []string{"Nitrogen fixing"}, cards[1].Reasons)
}

func TestParseCropCardsRejectsGarbage(t *testing.T) {
	assert.Nil(t, parseCropCards("no json here"))
	assert.Nil(t, parseCropCards("[not valid json]"))
	assert.Empty(t, parseCropCards("[]"))
}

func TestFallbackCardsFilters(t *testing.T) {
	all := fallbackCards(CropQuery{Region: "Punjab", Season: "Rabi", Soil: "loam"})
	require.Len(t, all, 3)

	cereal := fallbackCards(CropQuery{Region: "Punjab", Season: "Rabi", Soil: "loam", CropType: "cereal"})
	assert.Len(t, cereal, 3)

	// an unmatched crop type keeps the full list rather than returning nothing
	unmatched := fallbackCards(CropQuery{Region: "Punjab", Season: "Rabi", Soil: "loam", CropType: "fruit"})
	assert.Len(t, unmatched, 3)

	demand := fallbackCards(CropQuery{Region: "Punjab", Season: "Rabi", Soil: "loam", MarketDemand: true})
	require.Len(t, demand, 2)
	assert.Equal(t, "Wheat", demand[0].Crop)
	assert.Equal(t, "Millets", demand[1].Crop)
}
