// Package imaging loads source frames and prepares images for MCP
// responses.
//
// Source images are decoded once and kept in an ImageCache keyed by path.
// Results go back to the client as base64 PNG (EncodePNG) or are written to
// disk (Save). CropObject cuts a single detected object out of a frame.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Detection boxes use the
// same convention; they may be unordered or extend past the image, and are
// clamped before cropping.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Images returned from the
// cache are shared and must not be modified; callers draw on copies.
package imaging
