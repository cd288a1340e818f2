package schema

import (
	"testing"

	"github.com/gonbooster/AIArriendo-sub002/models"
)

func TestURLFromImagePath(t *testing.T) {
	s := Ciencuadras()

	tests := []struct {
		name string
		rec  models.RawRecord
		want string
	}{
		{
			name: "derives from cdn path",
			rec:  models.RawRecord{"image": "https://cdn.ciencuadras.com/fotos/inmueble-84219/principal.jpg"},
			want: "https://www.ciencuadras.com/inmueble/84219",
		},
		{
			name: "existing url untouched",
			rec: models.RawRecord{
				"url":   "https://www.ciencuadras.com/inmueble/1",
				"image": "https://cdn.ciencuadras.com/fotos/inmueble-2/x.jpg",
			},
			want: "https://www.ciencuadras.com/inmueble/1",
		},
		{
			name: "no id in path",
			rec:  models.RawRecord{"image": "https://cdn.ciencuadras.com/banners/promo.jpg"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urlFromImagePath(tt.rec, s)
			if got := tt.rec["url"]; got != tt.want {
				t.Errorf("url = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestNumbersFromListingURL(t *testing.T) {
	rec := models.RawRecord{
		"url":   "https://casas.trovit.com.co/listing/apto.chapinero/habitaciones.3/banos.2/area.85",
		"rooms": "4", // selector already found rooms; the hook must not clobber it
	}
	numbersFromListingURL(rec, nil)

	if rec["rooms"] != "4" {
		t.Errorf("rooms = %q; want selector value 4 kept", rec["rooms"])
	}
	if rec["bathrooms"] != "2" {
		t.Errorf("bathrooms = %q; want 2", rec["bathrooms"])
	}
	if rec["area"] != "85" {
		t.Errorf("area = %q; want 85", rec["area"])
	}
}

func TestStripTrackingParams(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			"https://x.co/item/1?utm_source=banner&utm_campaign=q3",
			"https://x.co/item/1",
		},
		{
			"https://x.co/item/1?rooms=3&utm_source=banner",
			"https://x.co/item/1?rooms=3",
		},
		{
			"https://x.co/item/1",
			"https://x.co/item/1",
		},
	}

	for _, tt := range tests {
		rec := models.RawRecord{"url": tt.in}
		stripTrackingParams(rec, nil)
		if rec["url"] != tt.want {
			t.Errorf("stripTrackingParams(%q) = %q; want %q", tt.in, rec["url"], tt.want)
		}
	}
}
