package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pc-builder/internal/domain/entity"
)

func TestDecodeItems(t *testing.T) {
	items, err := decodeItems("```json\n[{\"i\":0,\"manufacturer\":\"AMD\",\"model\":\"Ryzen 5 7600\",\"category\":\"CPU\"}]\n```")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, normalized{Index: 0, Manufacturer: "AMD", Model: "Ryzen 5 7600", Category: "CPU"}, items[0])

	_, err = decodeItems("sorry, I cannot help")
	assert.Error(t, err)
}

func TestApplyNormalized_KeepsSheetValues(t *testing.T) {
	l := entity.Listing{Name: "Corsair SF750", Manufacturer: "Corsair", Category: "misc"}
	applyNormalized(&l, normalized{Manufacturer: "CORSAIR INC", Model: " SF750 ", Category: "PSU"})

	assert.Equal(t, "Corsair", l.Manufacturer)
	assert.Equal(t, "SF750", l.Model)
	assert.Equal(t, "PSU", l.Category)

	l = entity.Listing{Category: "GPU"}
	applyNormalized(&l, normalized{Category: "Other"})
	assert.Equal(t, "GPU", l.Category)
}
