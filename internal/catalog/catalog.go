// Package catalog lists the avatar styles supported by the rendering service.
package catalog

// Style is a single entry of the catalog: the token sent to the renderer and
// the label shown to users.
type Style struct {
	Token string
	Label string
}

var styles = []Style{
	{Token: "adventurer", Label: "Adventurer"},
	{Token: "adventurer-neutral", Label: "Adventurer Neutral"},
	{Token: "avataaars", Label: "Avataaars"},
	{Token: "avataaars-neutral", Label: "Avataaars Neutral"},
	{Token: "big-ears", Label: "Big Ears"},
	{Token: "big-ears-neutral", Label: "Big Ears Neutral"},
	{Token: "big-smile", Label: "Big Smile"},
	{Token: "bottts", Label: "Bottts"},
	{Token: "bottts-neutral", Label: "Bottts Neutral"},
	{Token: "croodles", Label: "Croodles"},
	{Token: "croodles-neutral", Label: "Croodles Neutral"},
	{Token: "fun-emoji", Label: "Fun Emoji"},
	{Token: "icons", Label: "Icons"},
	{Token: "identicon", Label: "Identicon"},
	{Token: "initials", Label: "Initials"},
	{Token: "lorelei", Label: "Lorelei"},
	{Token: "lorelei-neutral", Label: "Lorelei Neutral"},
	{Token: "micah", Label: "Micah"},
	{Token: "miniavs", Label: "Miniavs"},
	{Token: "notionists", Label: "Notionists"},
	{Token: "notionists-neutral", Label: "Notionists Neutral"},
	{Token: "open-peeps", Label: "Open Peeps"},
	{Token: "personas", Label: "Personas"},
	{Token: "pixel-art", Label: "Pixel Art"},
	{Token: "pixel-art-neutral", Label: "Pixel Art Neutral"},
	{Token: "rings", Label: "Rings"},
	{Token: "shapes", Label: "Shapes"},
	{Token: "thumbs", Label: "Thumbs"},
}

var byToken = func() map[string]Style {
	m := make(map[string]Style, len(styles))
	for _, s := range styles {
		m[s.Token] = s
	}
	return m
}()

// All returns a copy of the catalog in display order.
func All() []Style {
	return append([]Style(nil), styles...)
}

// Len reports the number of styles in the catalog.
func Len() int {
	return len(styles)
}

// Lookup returns the style registered under token.
func Lookup(token string) (Style, bool) {
	s, ok := byToken[token]
	return s, ok
}

// Contains reports whether token names a known style.
func Contains(token string) bool {
	_, ok := byToken[token]
	return ok
}
