package metadata

import (
	"sort"

	exif "github.com/dsoprea/go-exif/v3"
)

// Exposure is a kind of identifying information carried in EXIF data.
type Exposure string

// Exposure kinds, from most to least identifying.
const (
	// ExposureGPS is a location where the image was taken.
	ExposureGPS Exposure = "gps"
	// ExposureSerial is a camera body or lens serial number.
	ExposureSerial Exposure = "serial"
	// ExposureAuthor is an artist, author or copyright holder.
	ExposureAuthor Exposure = "author"
	// ExposureDevice is the camera make or model.
	ExposureDevice Exposure = "device"
	// ExposureHostComputer is the name of the computer that processed the image.
	ExposureHostComputer Exposure = "host_computer"
	// ExposureSoftware is the editing software or operating system.
	ExposureSoftware Exposure = "software"
	// ExposureTimestamp is a capture or edit time.
	ExposureTimestamp Exposure = "timestamp"
)

var exposureRank = map[Exposure]int{
	ExposureGPS:          0,
	ExposureSerial:       1,
	ExposureAuthor:       2,
	ExposureDevice:       3,
	ExposureHostComputer: 4,
	ExposureSoftware:     5,
	ExposureTimestamp:    6,
}

// exposureTags maps EXIF tag names to the exposure they reveal.
var exposureTags = map[string]Exposure{
	"GPSLatitude":        ExposureGPS,
	"GPSLongitude":       ExposureGPS,
	"GPSLatitudeRef":     ExposureGPS,
	"GPSLongitudeRef":    ExposureGPS,
	"GPSAltitude":        ExposureGPS,
	"SerialNumber":       ExposureSerial,
	"CameraSerialNumber": ExposureSerial,
	"BodySerialNumber":   ExposureSerial,
	"LensSerialNumber":   ExposureSerial,
	"Artist":             ExposureAuthor,
	"Author":             ExposureAuthor,
	"Copyright":          ExposureAuthor,
	"XPAuthor":           ExposureAuthor,
	"CameraOwnerName":    ExposureAuthor,
	"Make":               ExposureDevice,
	"Model":              ExposureDevice,
	"HostComputer":       ExposureHostComputer,
	"Software":           ExposureSoftware,
	"ProcessingSoftware": ExposureSoftware,
	"DateTimeOriginal":   ExposureTimestamp,
	"DateTimeDigitized":  ExposureTimestamp,
	"DateTime":           ExposureTimestamp,
}

// Exposures returns the kinds of identifying EXIF data found in data,
// most identifying first. Tag values are never returned. It returns nil
// when the image has no EXIF block or none of it identifies anyone.
func Exposures(data []byte) []Exposure {
	if len(data) == 0 {
		return nil
	}
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return nil
	}
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil
	}

	tags := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Formatted == "" {
			continue
		}
		tags = append(tags, entry.TagName)
	}
	return exposuresOf(tags)
}

// exposuresOf maps tag names to distinct exposures sorted by rank.
func exposuresOf(tags []string) []Exposure {
	seen := make(map[Exposure]bool)
	var out []Exposure
	for _, tag := range tags {
		e, ok := exposureTags[tag]
		if !ok || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return exposureRank[out[i]] < exposureRank[out[j]]
	})
	return out
}

// ExposureStrings converts exposures to their names.
func ExposureStrings(exposures []Exposure) []string {
	if len(exposures) == 0 {
		return nil
	}
	out := make([]string, len(exposures))
	for i, e := range exposures {
		out[i] = string(e)
	}
	return out
}
