// Package laszip describes LASzip point items and the LASzip VLR payload that
// carries codec parameters from a compressor to every decompressor.
package laszip

import "fmt"

// ItemType identifies the kind of field a point item encodes.
type ItemType uint16

// Item types as numbered by LASzip.
const (
	ItemByte      ItemType = 0
	ItemShort     ItemType = 1
	ItemInt       ItemType = 2
	ItemLong      ItemType = 3
	ItemFloat     ItemType = 4
	ItemDouble    ItemType = 5
	ItemPoint10   ItemType = 6
	ItemGpsTime11 ItemType = 7
	ItemRGB12     ItemType = 8
	ItemWavepkt13 ItemType = 9
)

// Fixed item sizes in bytes.
const (
	Point10Size   = 20
	GpsTime11Size = 8
	RGB12Size     = 6
	// MaxItemSize is the largest size a u16 item descriptor can hold.
	MaxItemSize = 1<<16 - 1
)

// DefaultItemVersion is the item compression version written for new items.
const DefaultItemVersion uint16 = 2

func (t ItemType) String() string {
	switch t {
	case ItemByte:
		return "BYTE"
	case ItemPoint10:
		return "POINT10"
	case ItemGpsTime11:
		return "GPSTIME11"
	case ItemRGB12:
		return "RGB12"
	case ItemWavepkt13:
		return "WAVEPACKET13"
	default:
		return fmt.Sprintf("ITEM(%d)", uint16(t))
	}
}

// Item is one field of a point record.
type Item struct {
	Type    ItemType `json:"type"`
	Size    uint16   `json:"size"`
	Version uint16   `json:"version"`
}

// Point10 returns the base geometry item.
func Point10() Item {
	return Item{Type: ItemPoint10, Size: Point10Size, Version: DefaultItemVersion}
}

// GpsTime11 returns the GPS time item.
func GpsTime11() Item {
	return Item{Type: ItemGpsTime11, Size: GpsTime11Size, Version: DefaultItemVersion}
}

// RGB12 returns the color item.
func RGB12() Item {
	return Item{Type: ItemRGB12, Size: RGB12Size, Version: DefaultItemVersion}
}

// ExtraBytes returns a BYTE item of count bytes.
func ExtraBytes(count uint16) Item {
	return Item{Type: ItemByte, Size: count, Version: DefaultItemVersion}
}

// Validate checks that the item has a size consistent with its type.
func (it Item) Validate() error {
	switch it.Type {
	case ItemPoint10:
		if it.Size != Point10Size {
			return fmt.Errorf("%s item must be %d bytes, got %d", it.Type, Point10Size, it.Size)
		}
	case ItemGpsTime11:
		if it.Size != GpsTime11Size {
			return fmt.Errorf("%s item must be %d bytes, got %d", it.Type, GpsTime11Size, it.Size)
		}
	case ItemRGB12:
		if it.Size != RGB12Size {
			return fmt.Errorf("%s item must be %d bytes, got %d", it.Type, RGB12Size, it.Size)
		}
	case ItemByte:
		if it.Size == 0 {
			return fmt.Errorf("%s item must not be empty", it.Type)
		}
	default:
		return fmt.Errorf("unsupported item type %s", it.Type)
	}
	return nil
}

// WordWidths returns the little-endian word layout of the item, used by
// predictors that work field by field.
func (it Item) WordWidths() []int {
	switch it.Type {
	case ItemPoint10:
		// x, y, z, intensity, return bits, class bits, scan angle, user data, point source id
		return []int{4, 4, 4, 2, 1, 1, 1, 1, 2}
	case ItemGpsTime11:
		return []int{8}
	case ItemRGB12:
		return []int{2, 2, 2}
	default:
		widths := make([]int, it.Size)
		for i := range widths {
			widths[i] = 1
		}
		return widths
	}
}

// PointSize returns the sum of the item sizes.
func PointSize(items []Item) int {
	size := 0
	for _, it := range items {
		size += int(it.Size)
	}
	return size
}
