// Package scoring fuses the per-signal results of one pipeline run into a
// single calibrated confidence.
//
// Each signal gets a sub-score in [0,1]. The sub-scores are combined with
// weights that sum to one over the sources that actually ran; the weight of
// a missing source is redistributed proportionally across the rest.
package scoring
