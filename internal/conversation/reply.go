package conversation

// Format selects how reply text is rendered by the transport.
type Format int

const (
	// FormatPlain sends text as is.
	FormatPlain Format = iota
	// FormatMarkdownV2 sends text with Telegram MarkdownV2 markup.
	FormatMarkdownV2
)

// Reply is the outbound content for one event: TextReply, MenuReply or ImageReply.
type Reply interface {
	reply()
}

// TextReply is a text-only reply.
type TextReply struct {
	Text   string
	Format Format
}

// Choice is one button of a menu.
type Choice struct {
	Label string
	Token string
}

// MenuReply is text followed by a multiple-choice menu laid out in rows.
type MenuReply struct {
	Text string
	Rows [][]Choice
}

// RenderRequest describes the avatar the rendering service should produce.
type RenderRequest struct {
	Style string
	Size  int
	Seed  string
}

// ImageReply asks the transport to resolve Request into an image and send it.
type ImageReply struct {
	Request RenderRequest
}

func (TextReply) reply()  {}
func (MenuReply) reply()  {}
func (ImageReply) reply() {}
