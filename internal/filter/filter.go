// Package filter implements the four content transforms crossfs applies
// to backing files: pass, bin, ini, and font. Each is a pure, stateless
// function: given a resolved backing file's bytes (or, for font, every
// backing file's bytes in priority order), it produces the transformed
// byte stream a read should deliver. The byte length of that stream is
// always the size getattr must report for the same request, so every
// filter's projected size is computed by taking len() of the same
// content a read would produce rather than by a separately maintained
// formula that could drift out of sync.
package filter

// Pass is the identity filter: backing content is returned unchanged.
func Pass(data []byte) []byte {
	return data
}

// Bin replaces a regular file's content with the redirector binary's
// bytes. It must only be invoked for regular files; directories are left
// to the pass-through default by the caller.
func Bin(redirector []byte) []byte {
	return redirector
}

// FontsDir and FontsAlias are the only base names the font filter rewrites; any
// other path beneath a font-filtered configured path falls through to
// Pass.
const (
	FontsDir   = "fonts.dir"
	FontsAlias = "fonts.alias"
)

// IsFontIndex reports whether name (a base name) is one the font filter
// merges rather than passing through.
func IsFontIndex(name string) bool {
	return name == FontsDir || name == FontsAlias
}
