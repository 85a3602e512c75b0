package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lazperf/pkg/laszip"
)

func TestParseSchema(t *testing.T) {
	tests := []struct {
		list  string
		size  int
		types []laszip.ItemType
	}{
		{"point", 20, []laszip.ItemType{laszip.ItemPoint10}},
		{"point,gpstime,rgb", 34, []laszip.ItemType{laszip.ItemPoint10, laszip.ItemGpsTime11, laszip.ItemRGB12}},
		{" Point , RGB, extra=4 ", 30, []laszip.ItemType{laszip.ItemPoint10, laszip.ItemRGB12, laszip.ItemByte}},
		{"point,extra=0", 20, []laszip.ItemType{laszip.ItemPoint10}},
	}

	for _, tt := range tests {
		t.Run(tt.list, func(t *testing.T) {
			schema, err := parseSchema(tt.list)
			require.NoError(t, err)
			assert.Equal(t, tt.size, schema.SizeInBytes())

			items := schema.Items()
			require.Len(t, items, len(tt.types))
			for i, it := range items {
				assert.Equal(t, tt.types[i], it.Type)
			}
		})
	}
}

func TestParseSchemaErrors(t *testing.T) {
	tests := map[string]string{
		"":                "empty schema item",
		"point,,rgb":      "empty schema item",
		"point,intensity": "unknown schema item",
		"point,extra":     "needs a byte count",
		"point,extra=x":   "invalid extra byte count",
		"point,extra=-1":  "out of range",
		"rgb=2":           "takes no argument",
		"extra=0":         "empty record",
	}

	for list, want := range tests {
		t.Run(list, func(t *testing.T) {
			_, err := parseSchema(list)
			require.Error(t, err)
			assert.Contains(t, err.Error(), want)
		})
	}
}
