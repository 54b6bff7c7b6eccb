package metadata

import (
	"bytes"
	"image"
	"image/png"
	"reflect"
	"testing"
)

func TestExposuresOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tags []string
		want []Exposure
	}{
		{name: "no tags", tags: nil, want: nil},
		{name: "harmless tags", tags: []string{"ImageWidth", "Orientation", "ExposureTime"}, want: nil},
		{
			name: "ordered by rank",
			tags: []string{"DateTime", "Make", "GPSLatitude", "Software", "BodySerialNumber"},
			want: []Exposure{ExposureGPS, ExposureSerial, ExposureDevice, ExposureSoftware, ExposureTimestamp},
		},
		{
			name: "duplicates collapse",
			tags: []string{"GPSLatitude", "GPSLongitude", "Make", "Model"},
			want: []Exposure{ExposureGPS, ExposureDevice},
		},
		{
			name: "author and host",
			tags: []string{"HostComputer", "Copyright"},
			want: []Exposure{ExposureAuthor, ExposureHostComputer},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exposuresOf(tt.tags); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("exposuresOf(%v) = %v, want %v", tt.tags, got, tt.want)
			}
		})
	}
}

func TestExposures_NoEXIF(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	for name, data := range map[string][]byte{
		"empty":   nil,
		"garbage": []byte("not an image"),
		"png":     buf.Bytes(),
	} {
		if got := Exposures(data); got != nil {
			t.Errorf("%s: expected nil, got %v", name, got)
		}
	}
}

func TestExposureStrings(t *testing.T) {
	t.Parallel()

	if got := ExposureStrings(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	got := ExposureStrings([]Exposure{ExposureGPS, ExposureDevice})
	if !reflect.DeepEqual(got, []string{"gps", "device"}) {
		t.Errorf("unexpected names %v", got)
	}
}
