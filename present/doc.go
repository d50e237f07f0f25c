// Package present is the presentation engine. It draws one generation of a
// grid.Store into a surface frame as a single indexed quad of four
// vertices and six uint16 indices.
//
// The fragment stage maps each pixel to a cell and colors it with a
// grid.Style, so a frame of any size shows the whole grid stretched to fit.
package present
