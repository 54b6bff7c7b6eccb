// Package caption turns a SemanticDescription into a short caption.
//
// A caption is produced in two steps. Select picks a template from a fixed
// priority order, then Render fills its placeholders with phrases from the
// phrase builders and post-processes the text (placeholder stripping,
// spacing and punctuation repair, capitalization, word limit).
//
// Templates and phrase builders only draw on canonical object labels and
// fixed phrases. Recognized text is never quoted in a caption.
package caption
