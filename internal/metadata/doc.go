// Package metadata reads descriptive text already embedded in an image file:
// EXIF ImageDescription, IPTC caption and headline, and XMP description and
// title. The CLI shows it next to the synthesized caption; it never feeds
// into the pipeline.
//
// Exposures lists the kinds of identifying EXIF data an image carries, such
// as GPS coordinates or device serial numbers, so that reports can warn
// before an image is shared. The identifying values themselves are never
// read out.
package metadata
